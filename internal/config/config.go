// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// DefaultTokenTTL is the token lifetime the login contract promises.
const DefaultTokenTTL = time.Hour

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Storage
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"docket.db"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"true"`

	// Cache (Redis). Empty disables identity caching and rate limiting.
	RedisURL string `env:"REDIS_URL"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Documents
	TimeZone       string `env:"TIME_ZONE" envDefault:"UTC"`
	DefaultPerPage int    `env:"DEFAULT_PER_PAGE" envDefault:"20"`
	MaxPerPage     int    `env:"MAX_PER_PAGE" envDefault:"100"`

	// Tokens
	TokenTTL                    time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	ExpiredTokenReadAsAnonymous bool          `env:"EXPIRED_TOKEN_READ_AS_ANONYMOUS" envDefault:"true"`
	LoginVerifyPassword         bool          `env:"LOGIN_VERIFY_PASSWORD" envDefault:"false"`

	// Rate limiting (per client IP, needs Redis)
	RateLimitEnabled bool    `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst   int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// Honour X-Forwarded-For / X-Real-IP. Only safe behind a proxy that sets them.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	// Comma-separated list of allowed origins for the SPA
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Location loads the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
		if c.IsProduction() {
			errs = append(errs, errors.New("the sqlite driver is not supported in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.DefaultPerPage <= 0 || c.MaxPerPage <= 0 {
		errs = append(errs, errors.New("DEFAULT_PER_PAGE and MAX_PER_PAGE must be positive"))
	}
	if c.DefaultPerPage > c.MaxPerPage {
		errs = append(errs, errors.New("DEFAULT_PER_PAGE must not exceed MAX_PER_PAGE"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.RateLimitEnabled && (c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}

	return errors.Join(errs...)
}

// Warnings lists settings that are valid but depart from the documented API
// contract. They are logged at startup.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.TokenTTL != DefaultTokenTTL {
		warnings = append(warnings, fmt.Sprintf(
			"TOKEN_TTL is %s; clients expect login tokens to expire %s after issue", c.TokenTTL, DefaultTokenTTL))
	}
	if c.RateLimitEnabled && c.RedisURL == "" {
		warnings = append(warnings, "RATE_LIMIT_ENABLED has no effect without REDIS_URL")
	}
	return warnings
}

// Load reads the optional env file named by ENV_FILE (default .env), parses
// environment variables and validates the result. Variables already set in
// the environment win over the file.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
