// Package replycache provides handler middleware that memoizes replies by
// request payload, with in-memory and Redis-backed cache implementations.
// Useful when a handler computes the same reply for repeated identical
// requests and that computation is worth avoiding.
package replycache

import (
	"context"
	"time"
)

// FetchFunc computes a reply when a cache miss occurs. It receives a
// context for cancellation and timeout control, and returns the reply
// string or an error if the computation fails.
type FetchFunc func(ctx context.Context) (string, error)

// Cache stores handler replies keyed by request payload. Implementations
// must be safe for concurrent use and should suppress duplicate concurrent
// fetches for the same missing key (cache stampede prevention).
type Cache interface {
	// GetOrFetch retrieves a reply from the cache, or computes it using the
	// provided function if it is not cached. The computed reply is stored
	// with the specified TTL for future requests.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - key: The cache key to retrieve or set
	//   - ttl: Time-to-live duration for the cached reply
	//   - fetchFn: Function to compute the reply if not in cache
	//
	// Returns:
	//   - The cached or computed reply
	//   - An error if retrieval or computation fails
	GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetchFn FetchFunc) (string, error)

	// Delete removes a key from the cache. Deleting a missing key is not
	// an error.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - key: The cache key to remove
	//
	// Returns:
	//   - An error if the removal fails
	Delete(ctx context.Context, key string) error
}
