//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/docket/docket/internal/model"
	"github.com/docket/docket/internal/testutil"
)

func newCacheTestEnv(t *testing.T) (context.Context, *Cache) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	c, err := New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	return ctx, c
}

func TestIntegrationCache_IdentityRoundTrip(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	until := time.Now().Add(time.Hour).Truncate(time.Second)
	identity := &model.AuthContext{UserID: "u-1", Login: "alice", Roles: []string{model.RoleUser}, Until: until}

	if err := c.SetIdentity(ctx, "hash-1", identity, time.Minute); err != nil {
		t.Fatalf("SetIdentity failed: %v", err)
	}

	got, err := c.GetIdentity(ctx, "hash-1")
	if err != nil {
		t.Fatalf("GetIdentity failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected cache hit")
	}
	if got.UserID != "u-1" || got.Login != "alice" || !got.Until.Equal(until) {
		t.Errorf("unexpected identity: %+v", got)
	}

	ttl, err := c.Client().TTL(ctx, identityKey("hash-1")).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want within (0, 1m]", ttl)
	}

	if err := c.DeleteIdentity(ctx, "hash-1"); err != nil {
		t.Fatalf("DeleteIdentity failed: %v", err)
	}
	got, err = c.GetIdentity(ctx, "hash-1")
	if err != nil || got != nil {
		t.Errorf("expected miss after delete, got %v, %v", got, err)
	}
}

func TestIntegrationCache_IPRateLimit(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	burst := 3
	for i := 0; i < burst; i++ {
		res, err := c.CheckIPRateLimit(ctx, "203.0.113.7", 1, burst)
		if err != nil {
			t.Fatalf("CheckIPRateLimit failed: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	res, err := c.CheckIPRateLimit(ctx, "203.0.113.7", 1, burst)
	if err != nil {
		t.Fatalf("CheckIPRateLimit failed: %v", err)
	}
	if res.Allowed {
		t.Error("request beyond burst should be rejected")
	}
	if res.RetryAfter <= 0 {
		t.Errorf("RetryAfter should be positive, got %v", res.RetryAfter)
	}

	other, err := c.CheckIPRateLimit(ctx, "203.0.113.8", 1, burst)
	if err != nil {
		t.Fatalf("CheckIPRateLimit failed: %v", err)
	}
	if !other.Allowed {
		t.Error("a different client should have its own bucket")
	}
}
