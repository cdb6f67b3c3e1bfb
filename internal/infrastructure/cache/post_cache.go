package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ashifa-1/cms-backend/internal/api/metrics"
	"github.com/ashifa-1/cms-backend/internal/core/domain"
	"github.com/ashifa-1/cms-backend/internal/core/ports"
)

const (
	// opTimeout bounds every cache call independently of the caller's
	// deadline; a slow cache must not hold up the request or abort the
	// underlying store transaction.
	opTimeout = 100 * time.Millisecond

	scanBatch = 256
)

// PostCache is the Redis-backed ports.PostCache. All faults degrade: reads
// report a miss, writes and invalidations log and move on.
type PostCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewPostCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) *PostCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PostCache{client: client, ttl: ttl, log: log}
}

func (c *PostCache) GetPost(ctx context.Context, key string) (*domain.Post, bool) {
	raw, ok := c.get(ctx, key)
	if !ok {
		return nil, false
	}
	var p domain.Post
	if err := json.Unmarshal(raw, &p); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache entry undecodable, treating as miss")
		return nil, false
	}
	return &p, true
}

func (c *PostCache) SetPost(ctx context.Context, key string, p *domain.Post) {
	c.set(ctx, key, p)
}

func (c *PostCache) GetPage(ctx context.Context, key string) ([]*domain.Post, bool) {
	raw, ok := c.get(ctx, key)
	if !ok {
		return nil, false
	}
	var posts []*domain.Post
	if err := json.Unmarshal(raw, &posts); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache entry undecodable, treating as miss")
		return nil, false
	}
	return posts, true
}

func (c *PostCache) SetPage(ctx context.Context, key string, posts []*domain.Post) {
	c.set(ctx, key, posts)
}

// Invalidate deletes the batch's point keys and scans out the pattern
// namespaces. Failures never propagate; the TTL bounds the staleness window.
func (c *PostCache) Invalidate(ctx context.Context, batch ports.InvalidationBatch) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), opTimeout)
	defer cancel()

	if len(batch.Keys) > 0 {
		if err := c.client.Del(ctx, batch.Keys...).Err(); err != nil {
			c.log.Warn().Err(err).Strs("keys", batch.Keys).Msg("cache invalidation failed")
		} else {
			metrics.CacheInvalidationsTotal.Add(float64(len(batch.Keys)))
		}
	}

	for _, pattern := range batch.Patterns {
		c.deletePattern(ctx, pattern)
	}
}

func (c *PostCache) deletePattern(ctx context.Context, pattern string) {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			c.log.Warn().Err(err).Str("pattern", pattern).Msg("cache scan failed")
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.log.Warn().Err(err).Str("pattern", pattern).Msg("cache pattern delete failed")
				return
			}
			metrics.CacheInvalidationsTotal.Add(float64(len(keys)))
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

func (c *PostCache) get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("key", key).Msg("cache read failed, degrading to miss")
		}
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
	return raw, true
}

func (c *PostCache) set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}
