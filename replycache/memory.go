package replycache

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// MemoryCache is an in-memory implementation of Cache. It uses go-cache
// for storage and singleflight so concurrent requests for the same missing
// key compute the reply only once.
type MemoryCache struct {
	cache *cache.Cache
	group singleflight.Group
}

// NewMemoryCache creates a new in-memory reply cache with the specified
// default expiration and cleanup interval.
//
// Parameters:
//   - defaultExpiration: Default TTL for cached replies (use cache.NoExpiration for no default)
//   - cleanupInterval: Interval at which expired replies are removed
//
// Returns:
//   - A new MemoryCache instance
func NewMemoryCache(defaultExpiration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: cache.New(defaultExpiration, cleanupInterval),
	}
}

// GetOrFetch retrieves a reply from the cache, or computes it with fetchFn
// if it is not cached. Concurrent calls for the same missing key share a
// single fetch.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - key: The cache key to retrieve or set
//   - ttl: Time-to-live duration for the cached reply
//   - fetchFn: Function to compute the reply if not in cache
//
// Returns:
//   - The cached or computed reply
//   - An error if the computation fails
func (c *MemoryCache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetchFn FetchFunc) (string, error) {
	if val, found := c.cache.Get(key); found {
		if reply, ok := val.(string); ok {
			return reply, nil
		}
	}

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another goroutine may have populated the cache while this one
		// waited on the singleflight entry.
		if cached, found := c.cache.Get(key); found {
			if reply, ok := cached.(string); ok {
				return reply, nil
			}
		}

		reply, err := fetchFn(ctx)
		if err != nil {
			return "", err
		}

		c.cache.Set(key, reply, ttl)
		return reply, nil
	})
	if err != nil {
		return "", err
	}

	reply, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("unexpected type in cache for key %s", key)
	}

	return reply, nil
}

// Delete removes a key from the cache.
//
// Parameters:
//   - ctx: Unused; present to satisfy Cache
//   - key: The cache key to remove
//
// Returns:
//   - Always nil
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.cache.Delete(key)
	return nil
}
