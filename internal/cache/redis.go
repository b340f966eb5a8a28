// Package cache provides the Redis-backed token identity cache and rate limiter.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// namespace prefixes every key this service writes, so one Redis database can
// be shared with other tenants.
const namespace = "docket"

// key joins parts under the service namespace: key("identity", h) is
// "docket:identity:<h>".
func key(parts ...string) string {
	return namespace + ":" + strings.Join(parts, ":")
}

// Options tunes the Redis connection pool. Zero fields take defaults.
type Options struct {
	PoolSize       int
	MinIdleConns   int
	ConnectTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.PoolSize <= 0 {
		o.PoolSize = 10
	}
	if o.MinIdleConns <= 0 {
		o.MinIdleConns = 2
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 5 * time.Second
	}
	return o
}

// Cache holds the identity cache and rate limit buckets.
type Cache struct {
	client *redis.Client
}

// New connects to redisURL and verifies the connection.
func New(ctx context.Context, redisURL string, opts ...Options) (*Cache, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	o = o.withDefaults()

	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisOpts.PoolSize = o.PoolSize
	redisOpts.MinIdleConns = o.MinIdleConns
	redisOpts.DialTimeout = o.ConnectTimeout

	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, o.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Ping checks Redis connectivity for readiness probes.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client exposes the raw client to test helpers.
func (c *Cache) Client() *redis.Client {
	return c.client
}
