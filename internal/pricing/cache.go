package pricing

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Cache is a short-TTL store for resolved live prices, keyed by
// exchange:scrip. Misses and errors are indistinguishable to callers:
// both mean "fetch from the broker".
type Cache interface {
	Get(ctx context.Context, key string) (decimal.Decimal, bool)
	Set(ctx context.Context, key string, price decimal.Decimal)
}

// RedisCache implements Cache on redis. Quote TTLs are a few seconds:
// just enough to absorb bursts of summary requests without going back
// to the broker per request.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new quote cache
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached price for a key if present.
func (c *RedisCache) Get(ctx context.Context, key string) (decimal.Decimal, bool) {
	val, err := c.client.Get(ctx, "quote:"+key).Result()
	if err != nil {
		return decimal.Zero, false
	}

	price, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false
	}
	return price, true
}

// Set stores a price under the cache TTL. Errors are dropped: the
// cache is an optimization, never a dependency.
func (c *RedisCache) Set(ctx context.Context, key string, price decimal.Decimal) {
	c.client.Set(ctx, "quote:"+key, price.String(), c.ttl)
}
