package geocoder

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores lookup results. Failures are swallowed; the cache only exists
// to keep traffic to the external service down.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

const cacheTTL = 24 * time.Hour

// RedisCache backs the lookup cache with Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an existing Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	v, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key, value string) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_ = c.client.Set(ctx, key, value, cacheTTL).Err()
}
