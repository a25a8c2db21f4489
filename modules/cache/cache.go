// Package cache provides a Redis-backed read cache with cache-aside
// semantics for the task module's list and stats reads.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Service is the read-cache contract the task module consumes. A miss is not
// an error: Get returns (false, nil) so callers fall through to the database.
type Service interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	InvalidateAll(ctx context.Context) error
}

// RedisCache implements Service over a Redis client with a key prefix and a
// shared TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New creates a new Redis-backed cache.
func New(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get retrieves a value from the cache. The boolean reports a cache hit.
func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil // cache miss
		}
		return false, fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}
	return true, nil
}

// Set stores a value in the cache with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

// InvalidateAll removes every key under the cache prefix. Mutations call this
// so stale lists and stats are never served past a write.
func (c *RedisCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan error: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache delete error: %w", err)
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Noop is the Service used when no Redis address is configured: every Get is
// a miss and writes are discarded, so the task module behaves identically
// minus the caching.
type Noop struct{}

func (Noop) Get(_ context.Context, _ string, _ any) (bool, error) { return false, nil }
func (Noop) Set(_ context.Context, _ string, _ any) error         { return nil }
func (Noop) InvalidateAll(_ context.Context) error                { return nil }
