package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docket/docket/internal/metrics"
	"github.com/docket/docket/internal/model"
	"github.com/docket/docket/internal/repository"
	"github.com/docket/docket/internal/repository/gormrepo"
	"github.com/docket/docket/internal/testutil"
)

var (
	_ DocumentStore = (*repository.Repository)(nil)
	_ UserStore     = (*repository.Repository)(nil)
	_ DocumentStore = (*gormrepo.Store)(nil)
	_ UserStore     = (*gormrepo.Store)(nil)
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 21, 7, 39, 38, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// mapCache is an in-process IdentityCache.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]*model.AuthContext
	deleted []string
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]*model.AuthContext)}
}

func (c *mapCache) GetIdentity(_ context.Context, key string) (*model.AuthContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key], nil
}

func (c *mapCache) SetIdentity(_ context.Context, key string, identity *model.AuthContext, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = identity
	return nil
}

func (c *mapCache) DeleteIdentity(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.deleted = append(c.deleted, key)
	return nil
}

type testEnv struct {
	ctx     context.Context
	store   *gormrepo.Store
	clock   *fakeClock
	cache   *mapCache
	metrics *metrics.InMemoryRecorder
	docs    *DocumentService
	auth    *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		ctx:     context.Background(),
		store:   testutil.NewMemoryStore(t),
		clock:   newFakeClock(),
		cache:   newMapCache(),
		metrics: metrics.NewInMemory(),
	}
	env.docs = NewDocumentService(env.store, Paging{DefaultPerPage: 20, MaxPerPage: 100}, env.metrics, nil).
		WithClock(env.clock.Now)
	env.auth = NewAuthService(env.store, env.cache, AuthConfig{TokenTTL: time.Hour}, env.metrics, nil).
		WithClock(env.clock.Now)
	return env
}

// newUser stores a user and returns a live identity for them.
func (e *testEnv) newUser(t *testing.T, login string) *model.AuthContext {
	t.Helper()
	u := testutil.NewTestUser(t, login)
	require.NoError(t, e.store.CreateUser(e.ctx, u))
	return &model.AuthContext{
		UserID: u.ID,
		Login:  u.Login,
		Roles:  u.Roles,
		Until:  e.clock.Now().Add(time.Hour),
	}
}
