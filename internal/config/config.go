package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig    `json:"server" toml:"server"`
	Database  DatabaseConfig  `json:"database" toml:"database"`
	Redis     RedisConfig     `json:"redis" toml:"redis"`
	Cache     CacheConfig     `json:"cache" toml:"cache"`
	RateLimit RateLimitConfig `json:"rate_limit" toml:"rate_limit"`
	CORS      CORSConfig      `json:"cors" toml:"cors"`
	Log       LogConfig       `json:"log" toml:"log"`
}

type ServerConfig struct {
	Host            string        `json:"host" toml:"host"`
	Port            string        `json:"port" toml:"port"`
	ReadTimeout     time.Duration `json:"read_timeout" toml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" toml:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout" toml:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" toml:"shutdown_timeout"`
	Environment     string        `json:"environment" toml:"environment"`
}

type DatabaseConfig struct {
	Driver          string        `json:"driver" toml:"driver"`
	Path            string        `json:"path" toml:"path"`
	Host            string        `json:"host" toml:"host"`
	Port            string        `json:"port" toml:"port"`
	User            string        `json:"user" toml:"user"`
	Password        string        `json:"password" toml:"password"`
	Name            string        `json:"name" toml:"name"`
	SSLMode         string        `json:"ssl_mode" toml:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns" toml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" toml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" toml:"conn_max_idle_time"`
}

type RedisConfig struct {
	Enabled      bool          `json:"enabled" toml:"enabled"`
	Host         string        `json:"host" toml:"host"`
	Port         string        `json:"port" toml:"port"`
	Password     string        `json:"password" toml:"password"`
	DB           int           `json:"db" toml:"db"`
	PoolSize     int           `json:"pool_size" toml:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns" toml:"min_idle_conns"`
	MaxRetries   int           `json:"max_retries" toml:"max_retries"`
	DialTimeout  time.Duration `json:"dial_timeout" toml:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout" toml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" toml:"write_timeout"`
}

type CacheConfig struct {
	ListTTL time.Duration `json:"list_ttl" toml:"list_ttl"`
}

type RateLimitConfig struct {
	Enabled         bool          `json:"enabled" toml:"enabled"`
	RequestsPerMin  int           `json:"requests_per_minute" toml:"requests_per_minute"`
	BurstSize       int           `json:"burst_size" toml:"burst_size"`
	CleanupInterval time.Duration `json:"cleanup_interval" toml:"cleanup_interval"`
}

type CORSConfig struct {
	AllowOrigins []string `json:"allow_origins" toml:"allow_origins"`
}

type LogConfig struct {
	Level  string `json:"level" toml:"level"`
	Format string `json:"format" toml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            "2022",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			Path:            "todos.db",
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Name:            "todo_tracker",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			Enabled:      false,
			Host:         "localhost",
			Port:         "6379",
			DB:           0,
			PoolSize:     10,
			MinIdleConns: 5,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Cache: CacheConfig{
			ListTTL: 10 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			RequestsPerMin:  600,
			BurstSize:       50,
			CleanupInterval: 10 * time.Minute,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"http://localhost:5173"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional TOML file
// named by CONFIG_FILE, and environment variables, in increasing precedence.
func LoadConfig() (*Config, error) {
	config := DefaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := config.mergeFile(path); err != nil {
			return nil, err
		}
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyEnv() {
	c.Server = ServerConfig{
		Host:            getEnv("HOST", c.Server.Host),
		Port:            getEnv("PORT", c.Server.Port),
		ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", c.Server.ReadTimeout),
		WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", c.Server.WriteTimeout),
		IdleTimeout:     getEnvAsDuration("IDLE_TIMEOUT", c.Server.IdleTimeout),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout),
		Environment:     getEnv("ENVIRONMENT", c.Server.Environment),
	}
	c.Database = DatabaseConfig{
		Driver:          getEnv("DB_DRIVER", c.Database.Driver),
		Path:            getEnv("DB_PATH", c.Database.Path),
		Host:            getEnv("DB_HOST", c.Database.Host),
		Port:            getEnv("DB_PORT", c.Database.Port),
		User:            getEnv("DB_USER", c.Database.User),
		Password:        getEnv("DB_PASSWORD", c.Database.Password),
		Name:            getEnv("DB_NAME", c.Database.Name),
		SSLMode:         getEnv("DB_SSL_MODE", c.Database.SSLMode),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", c.Database.ConnMaxLifetime),
		ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", c.Database.ConnMaxIdleTime),
	}
	c.Redis = RedisConfig{
		Enabled:      getEnvAsBool("REDIS_ENABLED", c.Redis.Enabled),
		Host:         getEnv("REDIS_HOST", c.Redis.Host),
		Port:         getEnv("REDIS_PORT", c.Redis.Port),
		Password:     getEnv("REDIS_PASSWORD", c.Redis.Password),
		DB:           getEnvAsInt("REDIS_DB", c.Redis.DB),
		PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", c.Redis.PoolSize),
		MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", c.Redis.MinIdleConns),
		MaxRetries:   getEnvAsInt("REDIS_MAX_RETRIES", c.Redis.MaxRetries),
		DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", c.Redis.DialTimeout),
		ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", c.Redis.ReadTimeout),
		WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", c.Redis.WriteTimeout),
	}
	c.Cache = CacheConfig{
		ListTTL: getEnvAsDuration("CACHE_LIST_TTL", c.Cache.ListTTL),
	}
	c.RateLimit = RateLimitConfig{
		Enabled:         getEnvAsBool("RATE_LIMIT_ENABLED", c.RateLimit.Enabled),
		RequestsPerMin:  getEnvAsInt("RATE_LIMIT_RPM", c.RateLimit.RequestsPerMin),
		BurstSize:       getEnvAsInt("RATE_LIMIT_BURST", c.RateLimit.BurstSize),
		CleanupInterval: getEnvAsDuration("RATE_LIMIT_CLEANUP", c.RateLimit.CleanupInterval),
	}
	c.CORS = CORSConfig{
		AllowOrigins: getEnvAsList("CORS_ALLOW_ORIGINS", c.CORS.AllowOrigins),
	}
	c.Log = LogConfig{
		Level:  getEnv("LOG_LEVEL", c.Log.Level),
		Format: getEnv("LOG_FORMAT", c.Log.Format),
	}
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Database.Driver == "postgres" && c.Database.Password == "" && c.IsProduction() {
		return fmt.Errorf("database password is required in production")
	}

	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		return fmt.Errorf("database path is required for sqlite")
	}

	return nil
}

func (c *Config) GetDatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.Path
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
