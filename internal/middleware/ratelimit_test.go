package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docket/docket/internal/cache"
)

type stubLimiter struct {
	result *cache.RateLimitResult
	err    error
	seenIP string
}

func (s *stubLimiter) CheckIPRateLimit(_ context.Context, ip string, _ float64, _ int) (*cache.RateLimitResult, error) {
	s.seenIP = ip
	return s.result, s.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitIP(t *testing.T) {
	t.Parallel()

	reset := time.Unix(1718955578, 0)

	tests := []struct {
		name       string
		limiter    *stubLimiter
		enabled    bool
		wantStatus int
		wantRetry  string
	}{
		{
			name:       "disabled",
			limiter:    &stubLimiter{err: errors.New("never called")},
			enabled:    false,
			wantStatus: http.StatusOK,
		},
		{
			name:       "allowed",
			limiter:    &stubLimiter{result: &cache.RateLimitResult{Allowed: true, Remaining: 4, ResetAt: reset}},
			enabled:    true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "rejected",
			limiter:    &stubLimiter{result: &cache.RateLimitResult{Allowed: false, ResetAt: reset, RetryAfter: 2 * time.Second}},
			enabled:    true,
			wantStatus: http.StatusTooManyRequests,
			wantRetry:  "2",
		},
		{
			name:       "limiter failure fails open",
			limiter:    &stubLimiter{err: errors.New("redis down")},
			enabled:    true,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := RateLimitIP(RateLimitConfig{
				Logger:  discardLogger(),
				Limiter: tt.limiter,
				Enabled: tt.enabled,
				RPS:     5,
				Burst:   5,
			})(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/api/v1/document", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Retry-After"); got != tt.wantRetry {
				t.Errorf("Retry-After = %q, want %q", got, tt.wantRetry)
			}
		})
	}
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr without port", "192.0.2.1", nil, "192.0.2.1"},
		{"remote addr with port", "192.0.2.1:5678", nil, "192.0.2.1"},
		{"ipv6 with port", "[2001:db8::1]:443", nil, "2001:db8::1"},
		{"forwarded header ignored", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2"}, "10.0.0.1"},
		{"real ip header ignored", "10.0.0.1:80", map[string]string{"X-Real-IP": "203.0.113.9"}, "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimitIP_ForwardedForCannotRotateBucket(t *testing.T) {
	t.Parallel()

	limiter := &stubLimiter{result: &cache.RateLimitResult{Allowed: true, Remaining: 1, ResetAt: time.Now()}}
	handler := RateLimitIP(RateLimitConfig{
		Logger:  discardLogger(),
		Limiter: limiter,
		Enabled: true,
		RPS:     1,
		Burst:   1,
	})(okHandler())

	for _, forwarded := range []string{"198.51.100.1", "198.51.100.2"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.7:4000"
		req.Header.Set("X-Forwarded-For", forwarded)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if limiter.seenIP != "192.0.2.7" {
			t.Errorf("bucket keyed on %q, want the connection address", limiter.seenIP)
		}
	}
}
