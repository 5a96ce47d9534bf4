package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database drivers
const (
	DriverSurrealDB = "surrealdb"
	DriverSQLite    = "sqlite"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Idempotency IdempotencyConfig
	RateLimit   RateLimitConfig
	Jobs        JobsConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	Env             string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration // 0 keeps SSE streams open
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	LogLevel        string
}

// DatabaseConfig selects the group store and holds its connection settings
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	Namespace  string
	Database   string
	User       string
	Password   string
	SQLitePath string
}

// RedisConfig holds the guide assignment stream settings
type RedisConfig struct {
	Enabled          bool
	Addr             string
	Password         string
	DB               int
	AssignmentStream string
	StreamMaxLen     int64
}

// IdempotencyConfig holds Idempotency-Key replay settings
type IdempotencyConfig struct {
	TTL time.Duration
}

// RateLimitConfig holds per-client request limits
type RateLimitConfig struct {
	Enabled   bool
	PerMinute int
	Burst     int
}

// JobsConfig holds background job settings
type JobsConfig struct {
	TotalsSyncEnabled  bool
	TotalsSyncInterval time.Duration
	TotalsSyncDays     int
	ServiceTimezone    string
}

// Location resolves the operator time zone used to pick service dates.
func (j JobsConfig) Location() (*time.Location, error) {
	return time.LoadLocation(j.ServiceTimezone)
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("SERVER_ENV", "development"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 0),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			LogLevel:        getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", DriverSurrealDB),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "8000"),
			Namespace:  getEnv("DB_NAMESPACE", "tourmageddon"),
			Database:   getEnv("DB_DATABASE", "operations"),
			User:       getEnv("DB_USER", "root"),
			Password:   getEnv("DB_PASSWORD", "root"),
			SQLitePath: getEnv("SQLITE_PATH", "./data/service_groups.db"),
		},
		Redis: RedisConfig{
			Enabled:          getBoolEnv("REDIS_ENABLED", false),
			Addr:             getEnv("REDIS_ADDR", "localhost:6379"),
			Password:         getEnv("REDIS_PASSWORD", ""),
			DB:               getIntEnv("REDIS_DB", 0),
			AssignmentStream: getEnv("REDIS_ASSIGNMENT_STREAM", "guide_assignments"),
			StreamMaxLen:     int64(getIntEnv("REDIS_STREAM_MAXLEN", 10000)),
		},
		Idempotency: IdempotencyConfig{
			TTL: getDurationEnv("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			Enabled:   getBoolEnv("RATE_LIMIT_ENABLED", true),
			PerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 300),
			Burst:     getIntEnv("RATE_LIMIT_BURST", 50),
		},
		Jobs: JobsConfig{
			TotalsSyncEnabled:  getBoolEnv("TOTALS_SYNC_ENABLED", true),
			TotalsSyncInterval: getDurationEnv("TOTALS_SYNC_INTERVAL", 5*time.Minute),
			TotalsSyncDays:     getIntEnv("TOTALS_SYNC_DAYS", 2),
			ServiceTimezone:    getEnv("SERVICE_TIMEZONE", "Europe/Rome"),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Server.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}
	switch strings.ToLower(c.Server.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got '%s'", c.Server.LogLevel))
	}

	// Database validation
	switch c.Database.Driver {
	case DriverSurrealDB:
		if c.Database.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required"))
		}
		if c.Database.Port == "" {
			errs = append(errs, errors.New("DB_PORT is required"))
		}
		if c.Database.Namespace == "" {
			errs = append(errs, errors.New("DB_NAMESPACE is required"))
		}
		if c.Database.Database == "" {
			errs = append(errs, errors.New("DB_DATABASE is required"))
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required when DB_DRIVER is sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be '%s' or '%s', got '%s'", DriverSurrealDB, DriverSQLite, c.Database.Driver))
	}

	// Redis validation
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when REDIS_ENABLED is true"))
		}
		if c.Redis.AssignmentStream == "" {
			errs = append(errs, errors.New("REDIS_ASSIGNMENT_STREAM is required when REDIS_ENABLED is true"))
		}
	}
	if c.Redis.DB < 0 {
		errs = append(errs, errors.New("REDIS_DB must not be negative"))
	}

	if c.Idempotency.TTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be positive"))
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.PerMinute <= 0 {
			errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
		}
		if c.RateLimit.Burst < 0 {
			errs = append(errs, errors.New("RATE_LIMIT_BURST must not be negative"))
		}
	}

	if c.Jobs.TotalsSyncEnabled {
		if c.Jobs.TotalsSyncInterval <= 0 {
			errs = append(errs, errors.New("TOTALS_SYNC_INTERVAL must be positive"))
		}
		if c.Jobs.TotalsSyncDays <= 0 {
			errs = append(errs, errors.New("TOTALS_SYNC_DAYS must be positive"))
		}
		if _, err := c.Jobs.Location(); err != nil {
			errs = append(errs, fmt.Errorf("SERVICE_TIMEZONE: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
