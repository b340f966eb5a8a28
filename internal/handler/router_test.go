package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket/docket/internal/cache"
	"github.com/docket/docket/internal/middleware"
)

// recordingLimiter allows every request and remembers the keys it saw.
type recordingLimiter struct {
	mu  sync.Mutex
	ips []string
}

func (l *recordingLimiter) CheckIPRateLimit(_ context.Context, ip string, _ float64, burst int) (*cache.RateLimitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ips = append(l.ips, ip)
	return &cache.RateLimitResult{Allowed: true, Remaining: int64(burst), ResetAt: time.Now()}, nil
}

func withLimiter(l middleware.IPRateLimiter, trustProxy bool) envOption {
	return func(cfg *RouterConfig) {
		cfg.TrustProxyHeaders = trustProxy
		cfg.RateLimit = middleware.RateLimitConfig{
			Logger:  cfg.Logger,
			Limiter: l,
			Enabled: true,
			RPS:     1,
			Burst:   10,
		}
	}
}

func TestRouter_RateLimitKeyIgnoresUntrustedProxyHeaders(t *testing.T) {
	limiter := &recordingLimiter{}
	env := newAPIEnv(t, withLimiter(limiter, false))

	for _, forwarded := range []string{"198.51.100.1", "198.51.100.2"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/document", nil)
		req.RemoteAddr = "192.0.2.7:4000"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, []string{"192.0.2.7", "192.0.2.7"}, limiter.ips)
}

func TestRouter_RateLimitKeyUsesTrustedProxyHeaders(t *testing.T) {
	limiter := &recordingLimiter{}
	env := newAPIEnv(t, withLimiter(limiter, true))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/document", nil)
	req.RemoteAddr = "10.0.0.1:4000"
	req.Header.Set("X-Real-IP", "203.0.113.9")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"203.0.113.9"}, limiter.ips)
}
