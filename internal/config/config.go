package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported record source backends.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string
	BaseURL    string

	// Record source
	DataBackend  string // "postgres" or "sqlite"
	DatabaseURL  string
	SQLiteDBPath string

	// Charts
	PlotCacheDir     string
	AnchorOffsetDays int // reference date = today - AnchorOffsetDays
	MaxDaysBack      int

	// CORS
	CORSOrigins string // Comma-separated allowed origins, e.g. "https://example.com,https://app.example.com"

	// Rate limiting
	RateLimitMax    int
	RateLimitWindow time.Duration
	RedisURL        string // Optional shared limiter storage, e.g. "redis://localhost:6379/0"

	// Background jobs
	CacheWarmInterval time.Duration // 0 disables the cache warmer

	// Observability
	MetricsEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:               getEnv("ENV", "development"),
		ServerAddr:        getEnv("SERVER_ADDR", ":3000"),
		BaseURL:           getEnv("BASE_URL", "http://localhost:3000"),
		DataBackend:       strings.ToLower(getEnv("DATA_BACKEND", BackendPostgres)),
		DatabaseURL:       getEnv("DATABASE_URL", "postgres://localhost:5432/exitviz?sslmode=disable"),
		SQLiteDBPath:      getEnv("SQLITE_DB_PATH", "./data/exitviz.db"),
		PlotCacheDir:      getEnv("PLOT_CACHE_DIR", "./plotcache"),
		AnchorOffsetDays:  getEnvInt("ANCHOR_OFFSET_DAYS", 180),
		MaxDaysBack:       getEnvInt("MAX_DAYS_BACK", 3650),
		CORSOrigins:       getEnv("CORS_ORIGINS", ""),
		RateLimitMax:      getEnvInt("RATE_LIMIT_MAX", 60),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		RedisURL:          getEnv("REDIS_URL", ""),
		CacheWarmInterval: getEnvDuration("CACHE_WARM_INTERVAL", 0),
		MetricsEnabled:    getEnv("METRICS_ENABLED", "true") != "false",
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.DataBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when DATA_BACKEND=postgres"))
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errs = append(errs, errors.New("SQLITE_DB_PATH is required when DATA_BACKEND=sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("DATA_BACKEND must be %q or %q, got %q", BackendPostgres, BackendSQLite, c.DataBackend))
	}

	if c.ServerAddr == "" {
		errs = append(errs, errors.New("SERVER_ADDR is required"))
	}
	if c.PlotCacheDir == "" {
		errs = append(errs, errors.New("PLOT_CACHE_DIR is required"))
	}
	if c.AnchorOffsetDays < 0 {
		errs = append(errs, fmt.Errorf("ANCHOR_OFFSET_DAYS must be >= 0, got %d", c.AnchorOffsetDays))
	}
	if c.MaxDaysBack < 0 {
		errs = append(errs, fmt.Errorf("MAX_DAYS_BACK must be >= 0, got %d", c.MaxDaysBack))
	}
	if c.RateLimitMax < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_MAX must be >= 0, got %d", c.RateLimitMax))
	}
	if c.RateLimitMax > 0 && c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled"))
	}
	if c.CacheWarmInterval < 0 {
		errs = append(errs, fmt.Errorf("CACHE_WARM_INTERVAL must be >= 0, got %v", c.CacheWarmInterval))
	}

	if len(errs) > 0 {
		var b strings.Builder
		b.WriteString("configuration validation failed:")
		for _, err := range errs {
			b.WriteString("\n- ")
			b.WriteString(err.Error())
		}
		return errors.New(b.String())
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsSQLite returns true if exits are read from the SQLite backend.
func (c *Config) IsSQLite() bool {
	return c.DataBackend == BackendSQLite
}
