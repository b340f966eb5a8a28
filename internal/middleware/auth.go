package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/docket/docket/internal/auth"
	"github.com/docket/docket/internal/model"
)

// TokenResolver maps a bearer token to the identity holding it.
// A nil identity with a nil error means no user holds the token.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*model.AuthContext, error)
}

// Authenticate resolves the bearer token, if any, and injects the identity into
// the request context. Requests without a usable token continue anonymously;
// RequireAuth and AllowAnonymous decide what each route accepts.
// Expired identities are injected as-is.
func Authenticate(resolver TokenResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := auth.ParseBearer(header)
			if !ok {
				logger.Debug("authentication skipped",
					slog.String("reason", "malformed_header"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}

			identity, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				logger.Error("token lookup failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusInternalServerError)
				return
			}

			if identity == nil {
				logger.Warn("authentication failed",
					slog.String("reason", "unknown_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}

			logger.Debug("authentication successful",
				slog.String("user_id", identity.UserID),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithAuth(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests without a live identity with 401.
func RequireAuth(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := auth.AuthFromContext(r.Context())
			if identity == nil || identity.Expired(now()) {
				writeError(w, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AllowAnonymous serves routes that work with or without an identity. An
// expired identity is dropped when expiredAsAnonymous is set and rejected
// with 401 otherwise.
func AllowAnonymous(now func() time.Time, expiredAsAnonymous bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := auth.AuthFromContext(r.Context())
			if identity == nil || !identity.Expired(now()) {
				next.ServeHTTP(w, r)
				return
			}

			if !expiredAsAnonymous {
				writeError(w, http.StatusUnauthorized)
				return
			}

			ctx := auth.ContextWithAuth(r.Context(), nil)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
