package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"todo-tracker/backend/internal/config"
	"todo-tracker/backend/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const rpcPrefix = "/trpc"

type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds the gin engine for app: recovery, request ids, logging, metrics,
// CORS and rate limiting, then the procedures under /trpc and the health and
// metrics endpoints.
func New(cfg *config.Config, app *App, logger zerolog.Logger) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryWithLog(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(app.Monitor.Middleware())

	if corsMiddleware := newCORS(cfg.CORS); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	app.Monitor.RegisterRoutes(router)

	rpc := router.Group(rpcPrefix)
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstSize,
			cfg.RateLimit.CleanupInterval,
		)
		rpc.Use(limiter.Middleware())
	}
	app.TodoHandler.RegisterRoutes(rpc)

	return &Server{
		cfg:    cfg,
		logger: logger,
		engine: router,
		httpServer: &http.Server{
			Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}
}

func newCORS(cfg config.CORSConfig) gin.HandlerFunc {
	if len(cfg.AllowOrigins) == 0 {
		return nil
	}

	corsConfig := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	for _, origin := range cfg.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowAllOrigins = true
			return cors.New(corsConfig)
		}
	}

	corsConfig.AllowOrigins = cfg.AllowOrigins
	return cors.New(corsConfig)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().
			Str("addr", listener.Addr().String()).
			Msg("setting up http server")

		err := s.httpServer.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to serve http")
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("failed to shutdown http server")
		return err
	}

	s.logger.Info().Msg("shut down http server")
	return nil
}
