package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/docket/docket/internal/model"
)

// MaxIdentityTTL caps how long a resolved identity is trusted without a DB lookup.
const MaxIdentityTTL = 5 * time.Minute

func identityKey(tokenHash string) string {
	return key("identity", tokenHash)
}

// cachedIdentity represents a token identity stored in Redis.
type cachedIdentity struct {
	UserID string    `json:"user_id"`
	Login  string    `json:"login"`
	Roles  []string  `json:"roles"`
	Until  time.Time `json:"until"`
}

// GetIdentity retrieves a cached identity by token hash.
// Returns nil if not found (cache miss).
func (c *Cache) GetIdentity(ctx context.Context, tokenHash string) (*model.AuthContext, error) {
	data, err := c.client.Get(ctx, identityKey(tokenHash)).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached cachedIdentity
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &model.AuthContext{
		UserID: cached.UserID,
		Login:  cached.Login,
		Roles:  cached.Roles,
		Until:  cached.Until,
	}, nil
}

// SetIdentity caches an identity for ttl. Non-positive ttl is a no-op.
func (c *Cache) SetIdentity(ctx context.Context, tokenHash string, identity *model.AuthContext, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(cachedIdentity{
		UserID: identity.UserID,
		Login:  identity.Login,
		Roles:  identity.Roles,
		Until:  identity.Until,
	})
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	return c.client.Set(ctx, identityKey(tokenHash), data, ttl).Err()
}

// DeleteIdentity removes a cached identity.
// Used when a token is replaced by a new login.
func (c *Cache) DeleteIdentity(ctx context.Context, tokenHash string) error {
	return c.client.Del(ctx, identityKey(tokenHash)).Err()
}

// IdentityTTL bounds the cache lifetime of an identity by its token expiry.
func IdentityTTL(until, now time.Time) time.Duration {
	return min(MaxIdentityTTL, until.Sub(now))
}

// NoopIdentityCache is used when Redis is not configured. Every lookup misses.
type NoopIdentityCache struct{}

// GetIdentity always misses.
func (NoopIdentityCache) GetIdentity(context.Context, string) (*model.AuthContext, error) {
	return nil, nil
}

// SetIdentity does nothing.
func (NoopIdentityCache) SetIdentity(context.Context, string, *model.AuthContext, time.Duration) error {
	return nil
}

// DeleteIdentity does nothing.
func (NoopIdentityCache) DeleteIdentity(context.Context, string) error {
	return nil
}
