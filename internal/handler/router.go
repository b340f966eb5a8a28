package handler

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/docket/docket/internal/middleware"
)

// RouterConfig collects everything the HTTP surface is built from.
type RouterConfig struct {
	Logger    *slog.Logger
	Documents *DocumentHandler
	Auth      *AuthHandler
	Health    *HealthHandler
	Metrics   *MetricsHandler

	Resolver middleware.TokenResolver
	// Now is the clock used for token expiry checks.
	Now func() time.Time
	// ExpiredAsAnonymous lets read routes treat an expired token as no token.
	ExpiredAsAnonymous bool

	// TrustProxyHeaders lets X-Forwarded-For / X-Real-IP replace the peer
	// address. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool

	RateLimit      middleware.RateLimitConfig
	AllowedOrigins []string
	MaxBodySize    int64
	IsDevelopment  bool
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 1 << 20
	}

	r := chi.NewRouter()

	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins)))

	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.Metrics != nil {
		r.Get("/metrics", cfg.Metrics.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimitIP(cfg.RateLimit))
		r.Use(middleware.MaxBodySize(cfg.MaxBodySize))

		r.Post("/login", cfg.Auth.Login)

		r.Route("/document", func(r chi.Router) {
			r.Use(middleware.Authenticate(cfg.Resolver, cfg.Logger))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(cfg.Now))
				r.Post("/", cfg.Documents.Create)
				r.Patch("/{id}", cfg.Documents.Edit)
				r.Post("/{id}/publish", cfg.Documents.Publish)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.AllowAnonymous(cfg.Now, cfg.ExpiredAsAnonymous))
				r.Get("/", cfg.Documents.List)
				r.Get("/{id}", cfg.Documents.Get)
			})
		})
	})

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	return r
}
