// Package cache implements the cache-aside read store for the public surface
// on Redis. Entries are JSON-serialized posts or list pages with a coarse TTL
// safety net; correctness comes from explicit invalidation, the TTL only
// bounds staleness when an invalidation is lost.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultConnectTimeout = 5 * time.Second

// Config captures the settings for establishing a Redis connection.
type Config struct {
	URL     string
	Timeout time.Duration
}

// Connect initialises a Redis client from a redis:// URL and validates
// connectivity with a ping. A default timeout is applied when none is
// provided.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}
