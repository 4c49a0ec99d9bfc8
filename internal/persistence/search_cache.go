package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const searchVersionKey = "houses:search:version"

// SearchCache caches serialized public search results in Redis. Instead of
// scanning for keys on invalidation, a version counter is folded into every
// cache key; bumping it orphans all prior entries, which then age out via TTL.
type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSearchCache builds a cache over the shared Redis client. A nil client
// yields a disabled cache; all operations become no-ops.
func NewSearchCache(r *Redis, ttl time.Duration, logger *zap.Logger) *SearchCache {
	var client *redis.Client
	if r != nil {
		client = r.Client
	}
	return &SearchCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached payload for the query fingerprint, or ("", false).
func (c *SearchCache) Get(ctx context.Context, fingerprint string) (string, bool) {
	if c == nil || c.client == nil {
		return "", false
	}
	key, err := c.versionedKey(ctx, fingerprint)
	if err != nil {
		return "", false
	}
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("search cache read failed", zap.Error(err))
		}
		return "", false
	}
	return val, true
}

// Set stores the payload under the current version.
func (c *SearchCache) Set(ctx context.Context, fingerprint, payload string) {
	if c == nil || c.client == nil {
		return
	}
	key, err := c.versionedKey(ctx, fingerprint)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("search cache write failed", zap.Error(err))
	}
}

// Invalidate bumps the version counter, orphaning every cached search result.
func (c *SearchCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Incr(ctx, searchVersionKey).Err(); err != nil {
		c.logger.Warn("search cache invalidation failed", zap.Error(err))
	}
}

func (c *SearchCache) versionedKey(ctx context.Context, fingerprint string) (string, error) {
	version, err := c.client.Get(ctx, searchVersionKey).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return fmt.Sprintf("houses:search:%d:%s", version, fingerprint), nil
}
