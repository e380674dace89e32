package replycache

import (
	"context"
	"errors"
	"time"

	"github.com/cyberinferno/reqserver/logger"
	"github.com/cyberinferno/reqserver/server"
)

// errEmptyReply marks a handler result that must not be cached: an empty
// reply means "send nothing", not a value worth memoizing.
var errEmptyReply = errors.New("empty reply")

// Handler wraps next so identical request payloads within ttl share one
// computed reply. Empty replies are never cached, and a cache failure
// falls back to invoking next directly, so wrapping never changes what
// the client observes.
//
// The wrapped handler still runs synchronously on the connection's
// goroutine; a slow cache backend stalls that connection, so keep cache
// timeouts tight.
//
// Parameters:
//   - next: The handler whose replies are memoized
//   - cache: Backing store for memoized replies
//   - ttl: Time-to-live for each cached reply
//   - log: Destination for cache-failure diagnostics; nil for no logging
//
// Returns:
//   - A HandlerFunc that serves cached replies when possible
func Handler(next server.HandlerFunc, cache Cache, ttl time.Duration, log logger.Logger) server.HandlerFunc {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return func(data []byte, length int) string {
		key := string(data[:length])

		reply, err := cache.GetOrFetch(context.Background(), key, ttl, func(ctx context.Context) (string, error) {
			if computed := next(data, length); computed != "" {
				return computed, nil
			}

			return "", errEmptyReply
		})
		if err != nil {
			if errors.Is(err, errEmptyReply) {
				return ""
			}

			log.Warn("reply cache unavailable", logger.Field{Key: "error", Value: err})
			return next(data, length)
		}

		return reply
	}
}
