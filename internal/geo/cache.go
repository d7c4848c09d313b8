package geo

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// CachePrefix is the Redis key prefix for cached lookups.
	CachePrefix = "geo:"

	// CacheTTL is how long resolved countries are cached. Unknown results
	// are cached too, with a shorter TTL, so a flapping upstream doesn't
	// get hammered.
	CacheTTL        = 24 * time.Hour
	CacheUnknownTTL = 10 * time.Minute
)

// Cache wraps a Resolver with a Redis lookup cache keyed by host. Redis
// errors fail through to the inner resolver.
type Cache struct {
	client *redis.Client
	inner  Resolver
}

// NewCache creates a caching resolver.
func NewCache(client *redis.Client, inner Resolver) *Cache {
	return &Cache{client: client, inner: inner}
}

// Country implements Resolver.
func (c *Cache) Country(ctx context.Context, address string) string {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		host = address
	}
	key := CachePrefix + host

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil && cached != "" {
		return cached
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		// Redis unavailable; resolve directly without caching.
		return c.inner.Country(ctx, address)
	}

	country := c.inner.Country(ctx, address)

	ttl := CacheTTL
	if country == Unknown {
		ttl = CacheUnknownTTL
	}
	_ = c.client.Set(ctx, key, country, ttl).Err()

	return country
}
