package server

import (
	"context"
	"fmt"

	"todo-tracker/backend/internal/cache"
	"todo-tracker/backend/internal/config"
	"todo-tracker/backend/internal/database"
	"todo-tracker/backend/internal/handlers"
	"todo-tracker/backend/internal/monitoring"
	"todo-tracker/backend/internal/repositories"
	"todo-tracker/backend/internal/services"

	"github.com/rs/zerolog"
	"gorm.io/gorm/logger"
)

// App holds the long-lived dependencies of the server.
type App struct {
	Pool        *database.DatabasePool
	Cache       *cache.MultiLevelCache
	TodoService services.TodoService
	TodoHandler *handlers.TodoHandler
	Monitor     *monitoring.Monitor
}

// NewApp opens and migrates the database, connects the cache when Redis is
// enabled, and wires the todo service, handler and monitor.
func NewApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	dbLogger := log.With().Str("component", "gorm").Logger()

	poolConfig := &database.PoolConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        logger.Warn,
		SlowThreshold:   database.DefaultPoolConfig().SlowThreshold,
	}

	pool, err := database.NewDatabasePool(poolConfig, &dbLogger)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(pool.DB); err != nil {
		pool.Close()
		return nil, err
	}

	app := &App{
		Pool:    pool,
		Monitor: monitoring.NewMonitor(),
	}

	var todoService services.TodoService = services.NewTodoService(repositories.NewTodoRepository(), log)

	if cfg.Redis.Enabled {
		redisCache := cache.NewRedisCache(&cache.CacheConfig{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		if err := redisCache.Health(ctx); err != nil {
			// the breaker keeps requests off Redis until it answers
			log.Warn().Err(err).Str("addr", cfg.GetRedisAddr()).Msg("redis is not reachable")
		}

		app.Cache = cache.NewMultiLevelCache(redisCache, nil, log)
		todoService = services.NewCachedTodoService(todoService, app.Cache, cfg.Cache.ListTTL, log)

		app.Monitor.RegisterHealthCheck("cache", app.Cache.Health)
		app.Monitor.RegisterStats("cache", app.Cache.Stats)
	}

	app.TodoService = todoService
	app.TodoHandler = handlers.NewTodoHandler(pool.DB, todoService, log)

	app.Monitor.RegisterHealthCheck("database", pool.Health)
	app.Monitor.RegisterStats("database", pool.Stats)

	log.Info().
		Str("driver", cfg.Database.Driver).
		Bool("cache", app.Cache != nil).
		Strs("procedures", app.TodoHandler.Procedures()).
		Msg("application initialized")

	return app, nil
}

func (a *App) Close() error {
	var firstErr error

	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			firstErr = fmt.Errorf("close cache: %w", err)
		}
	}

	if err := a.Pool.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close database: %w", err)
	}

	return firstErr
}
