package replycache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, 10*time.Minute)
	require.NotNil(t, c)
	require.NotNil(t, c.cache)
}

func TestMemoryCache_GetOrFetch_CacheMiss(t *testing.T) {
	c := NewMemoryCache(cache.NoExpiration, time.Minute)
	ctx := context.Background()

	fetchCount := 0
	fetchFn := func(ctx context.Context) (string, error) {
		fetchCount++
		return "reply", nil
	}

	val, err := c.GetOrFetch(ctx, "key", time.Minute, fetchFn)
	require.NoError(t, err)
	assert.Equal(t, "reply", val)
	assert.Equal(t, 1, fetchCount)
}

func TestMemoryCache_GetOrFetch_CacheHit(t *testing.T) {
	c := NewMemoryCache(cache.NoExpiration, time.Minute)
	ctx := context.Background()

	fetchCount := 0
	_, err := c.GetOrFetch(ctx, "key", time.Minute, func(ctx context.Context) (string, error) {
		fetchCount++
		return "reply", nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, fetchCount)

	// Second call must hit the cache and skip the fetch entirely.
	val, err := c.GetOrFetch(ctx, "key", time.Minute, func(ctx context.Context) (string, error) {
		fetchCount++
		return "should not be used", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "reply", val)
	assert.Equal(t, 1, fetchCount)
}

func TestMemoryCache_GetOrFetch_FetchError(t *testing.T) {
	c := NewMemoryCache(cache.NoExpiration, time.Minute)
	ctx := context.Background()

	val, err := c.GetOrFetch(ctx, "key", time.Minute, func(ctx context.Context) (string, error) {
		return "", assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, val)

	// A failed fetch must not populate the cache.
	fetchCount := 0
	val, err = c.GetOrFetch(ctx, "key", time.Minute, func(ctx context.Context) (string, error) {
		fetchCount++
		return "reply", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "reply", val)
	assert.Equal(t, 1, fetchCount)
}

func TestMemoryCache_GetOrFetch_SingleFlight(t *testing.T) {
	c := NewMemoryCache(cache.NoExpiration, time.Minute)
	ctx := context.Background()

	var mu sync.Mutex
	fetchCount := 0
	slowFetch := func(ctx context.Context) (string, error) {
		mu.Lock()
		fetchCount++
		mu.Unlock()
		time.Sleep(50 * time.Millisecond)
		return "reply", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			val, err := c.GetOrFetch(ctx, "key", time.Minute, slowFetch)
			assert.NoError(t, err)
			assert.Equal(t, "reply", val)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, fetchCount, "concurrent misses must share one fetch")
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache(cache.NoExpiration, time.Minute)
	ctx := context.Background()

	_, err := c.GetOrFetch(ctx, "key", time.Minute, func(ctx context.Context) (string, error) {
		return "reply", nil
	})
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, "key"))

	fetchCount := 0
	_, err = c.GetOrFetch(ctx, "key", time.Minute, func(ctx context.Context) (string, error) {
		fetchCount++
		return "reply", nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fetchCount, "deleted key must be fetched again")
}
