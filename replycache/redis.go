package replycache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// RedisCache is a Redis-backed implementation of Cache, for sharing
// memoized replies across server processes. A process-local singleflight
// group suppresses duplicate concurrent fetches within one process;
// storing the computed reply is best effort, so a failed SET still
// returns the reply.
type RedisCache struct {
	client *redis.Client
	group  singleflight.Group
}

// NewRedisCache creates a Redis-backed reply cache using the given client.
//
// Example:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	cache := replycache.NewRedisCache(client)
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// GetOrFetch retrieves a reply from Redis, or computes it with fetchFn on
// a miss and stores it with the given TTL.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - key: The cache key to retrieve or set
//   - ttl: Time-to-live duration for the cached reply
//   - fetchFn: Function to compute the reply if not in cache
//
// Returns:
//   - The cached or computed reply
//   - An error if Redis is unreachable or the computation fails
func (c *RedisCache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetchFn FetchFunc) (string, error) {
	reply, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return reply, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		cached, err := c.client.Get(ctx, key).Result()
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("redis get %s: %w", key, err)
		}

		computed, err := fetchFn(ctx)
		if err != nil {
			return "", err
		}

		// Best effort: a failed store just means the next miss recomputes.
		_ = c.client.Set(ctx, key, computed, ttl).Err()

		return computed, nil
	})
	if err != nil {
		return "", err
	}

	return val.(string), nil
}

// Delete removes a key from Redis.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - key: The cache key to remove
//
// Returns:
//   - An error if the DEL command fails
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}

	return nil
}
