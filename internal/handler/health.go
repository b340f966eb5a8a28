package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	db    HealthChecker
	cache HealthChecker
}

// NewHealthHandler creates a new HealthHandler. cache is nil when Redis is not configured.
func NewHealthHandler(db, cache HealthChecker) *HealthHandler {
	return &HealthHandler{
		db:    db,
		cache: cache,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is the liveness probe. It never touches dependencies.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz is the readiness probe. It returns 200 only when every configured
// dependency answers a ping.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{
		"database": check(ctx, h.db),
		"redis":    check(ctx, h.cache),
	}

	status, code := "ok", http.StatusOK
	for _, v := range checks {
		if v != "ok" && v != "not configured" {
			status, code = "unhealthy", http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, code, HealthResponse{
		Status: status,
		Checks: checks,
	})
}

func check(ctx context.Context, c HealthChecker) string {
	if c == nil {
		return "not configured"
	}
	if err := c.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
