package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/docket/docket/internal/model"
	"github.com/docket/docket/internal/repository/gormrepo"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// TruncateData removes users and documents, keeping the seeded statuses.
func TruncateData(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, "TRUNCATE documents, users"); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// NewMemoryStore opens a private in-memory SQLite store closed on cleanup.
func NewMemoryStore(t testing.TB) *gormrepo.Store {
	t.Helper()
	store, err := gormrepo.OpenMemory(UniqueID("docket-test"))
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a user with a unique login and no token.
func NewTestUser(t testing.TB, login string) *model.User {
	t.Helper()
	return &model.User{
		ID:           uuid.NewString(),
		Login:        UniqueID(login),
		PasswordHash: "hash",
		Roles:        []string{model.RoleUser},
	}
}

// NewTestUserWithToken creates a user holding token until the given time.
func NewTestUserWithToken(t testing.TB, login, token string, until time.Time) *model.User {
	t.Helper()
	u := NewTestUser(t, login)
	u.Token = &token
	u.TokenUntil = &until
	return u
}

// NewTestDocument creates an unsaved document owned by userID.
func NewTestDocument(t testing.TB, userID string, status *model.Status, createdAt time.Time) *model.Document {
	t.Helper()
	return &model.Document{
		ID:         ulid.Make().String(),
		UserID:     userID,
		StatusID:   status.ID,
		Status:     status.Title,
		Payload:    model.Payload{},
		CreatedAt:  createdAt,
		ModifiedAt: createdAt,
	}
}

var uniqueSeq atomic.Uint64

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), uniqueSeq.Add(1))
}
