package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/docket/docket/internal/auth"
	"github.com/docket/docket/internal/cache"
	"github.com/docket/docket/internal/metrics"
	"github.com/docket/docket/internal/model"
	"github.com/docket/docket/internal/repository"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = time.Hour

// maxTokenAttempts bounds retries when a generated token collides.
const maxTokenAttempts = 3

// AuthConfig configures token issuance.
type AuthConfig struct {
	TokenTTL       time.Duration
	VerifyPassword bool
}

// AuthService issues bearer tokens and resolves them to identities.
type AuthService struct {
	users   UserStore
	cache   IdentityCache
	cfg     AuthConfig
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewAuthService creates a new AuthService. A nil cache disables identity caching.
func NewAuthService(users UserStore, identityCache IdentityCache, cfg AuthConfig, recorder metrics.Recorder, logger *slog.Logger) *AuthService {
	if identityCache == nil {
		identityCache = cache.NoopIdentityCache{}
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	return &AuthService{
		users:   users,
		cache:   identityCache,
		cfg:     cfg,
		metrics: recorder,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Login string
	Token string
	Until time.Time
}

// Login issues a new token for login, replacing any previous one.
// The password is only checked when verification is enabled.
func (s *AuthService) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	if login == "" {
		return nil, ErrLoginNotFound
	}

	user, err := s.users.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrLoginNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if s.cfg.VerifyPassword {
		ok, err := auth.VerifyPassword(password, user.PasswordHash)
		if err != nil && !errors.Is(err, auth.ErrInvalidHash) {
			return nil, fmt.Errorf("failed to verify password: %w", err)
		}
		if !ok {
			return nil, ErrInvalidPassword
		}
	}

	until := s.now().Add(s.cfg.TokenTTL)

	var token string
	for attempt := 1; ; attempt++ {
		token, err = auth.GenerateToken()
		if err != nil {
			return nil, err
		}
		err = s.users.UpdateUserToken(ctx, user.ID, token, until)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrTokenExists) || attempt == maxTokenAttempts {
			return nil, fmt.Errorf("failed to store token: %w", err)
		}
	}

	if err := s.Forget(ctx, user); err != nil {
		s.logger.Warn("identity_cache_delete_failed", "user_id", user.ID, "error", err)
	}

	s.metrics.IncLoginIssued()

	return &LoginResult{
		Login: user.Login,
		Token: token,
		Until: until,
	}, nil
}

// Resolve maps a bearer token to the identity holding it. It returns nil, nil
// when no user holds the token. Expired identities are returned as-is; callers
// decide how to treat them.
func (s *AuthService) Resolve(ctx context.Context, token string) (*model.AuthContext, error) {
	start := s.now()
	defer func() {
		s.metrics.ObserveTokenLookupDuration(s.now().Sub(start))
	}()

	key := auth.QuickHash(token)

	if cached, err := s.cache.GetIdentity(ctx, key); err == nil && cached != nil {
		s.metrics.IncTokenCacheHit()
		return cached, nil
	}
	s.metrics.IncTokenCacheMiss()

	user, err := s.users.GetUserByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}

	identity := model.NewAuthContext(user)

	now := s.now()
	if user.HasValidToken(now) {
		ttl := cache.IdentityTTL(identity.Until, now)
		if err := s.cache.SetIdentity(ctx, key, identity, ttl); err != nil {
			s.logger.Warn("identity_cache_set_failed", "user_id", user.ID, "error", err)
		}
	}

	return identity, nil
}

// Forget evicts the cached identity of the token user currently holds, so
// the token stops resolving before the cache entry would expire. Call it when
// the token is replaced or the user is removed.
func (s *AuthService) Forget(ctx context.Context, user *model.User) error {
	if user.Token == nil {
		return nil
	}
	if err := s.cache.DeleteIdentity(ctx, auth.QuickHash(*user.Token)); err != nil {
		return fmt.Errorf("failed to evict cached identity: %w", err)
	}
	return nil
}

// Now returns the service clock, so callers share one notion of expiry.
func (s *AuthService) Now() time.Time {
	return s.now()
}
