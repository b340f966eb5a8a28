// Package main is the entrypoint for the docket API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/docket/docket/internal/cache"
	"github.com/docket/docket/internal/config"
	"github.com/docket/docket/internal/handler"
	"github.com/docket/docket/internal/metrics"
	"github.com/docket/docket/internal/middleware"
	"github.com/docket/docket/internal/repository"
	"github.com/docket/docket/internal/repository/gormrepo"
	"github.com/docket/docket/internal/server"
	"github.com/docket/docket/internal/service"
)

// store is what the services and health checks need from either backend.
type store interface {
	service.UserStore
	service.DocumentStore
	Ping(ctx context.Context) error
	Close()
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := initLogger(cfg)
	for _, w := range cfg.Warnings() {
		logger.Warn("config_warning", "detail", w)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var (
		identityCache service.IdentityCache
		limiter       middleware.IPRateLimiter
		cacheHealth   handler.HealthChecker
		cacheClient   *cache.Cache
	)
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			db.Close()
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			return errors.New("redis unavailable")
		}
		identityCache = cacheClient
		limiter = cacheClient
		cacheHealth = cacheClient
		logger.Info("connected to Redis")
	} else {
		logger.Warn("REDIS_URL not set, identity caching and rate limiting disabled")
	}

	recorder := metrics.NewInMemory()

	authService := service.NewAuthService(db, identityCache, service.AuthConfig{
		TokenTTL:       cfg.TokenTTL,
		VerifyPassword: cfg.LoginVerifyPassword,
	}, recorder, logger)
	documentService := service.NewDocumentService(db, service.Paging{
		DefaultPerPage: cfg.DefaultPerPage,
		MaxPerPage:     cfg.MaxPerPage,
	}, recorder, logger)

	r := handler.NewRouter(handler.RouterConfig{
		Logger:             logger,
		Documents:          handler.NewDocumentHandler(documentService, loc, logger),
		Auth:               handler.NewAuthHandler(authService, logger),
		Health:             handler.NewHealthHandler(db, cacheHealth),
		Metrics:            handler.NewMetricsHandler(recorder),
		Resolver:           authService,
		Now:                authService.Now,
		ExpiredAsAnonymous: cfg.ExpiredTokenReadAsAnonymous,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
		RateLimit: middleware.RateLimitConfig{
			Logger:  logger,
			Limiter: limiter,
			Enabled: cfg.RateLimitEnabled,
			RPS:     cfg.RateLimitRPS,
			Burst:   cfg.RateLimitBurst,
		},
		AllowedOrigins: cfg.GetCORSAllowedOrigins(),
		MaxBodySize:    cfg.MaxRequestBodySize,
		IsDevelopment:  cfg.IsDevelopment(),
	})

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("database", func(context.Context) error {
		db.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"driver", cfg.DatabaseDriver,
		"time_zone", loc.String(),
	)

	return srv.Run()
}

// openStore connects the configured backend and prepares its schema.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		s, err := gormrepo.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("opened sqlite database", "path", cfg.SQLitePath)
		return s, nil

	default:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		repo, err := repository.New(connectCtx, cfg.DatabaseURL)
		if err != nil {
			logger.Error(
				"failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			return nil, errors.New("database unavailable")
		}
		logger.Info("connected to database")

		if cfg.MigrateOnStart {
			if err := repo.Migrate(ctx); err != nil {
				repo.Close()
				return nil, err
			}
			logger.Info("database migrations applied")
		}
		return repo, nil
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return passwordPattern.ReplaceAllString(parsed.String(), "password=redacted")
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
