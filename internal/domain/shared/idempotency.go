package shared

import (
	"context"
	"time"
)

// IdempotencyStore records the outcome of requests keyed by a client-supplied
// idempotency key, so retried requests replay the original result instead of
// executing twice.
type IdempotencyStore interface {
	// Get returns the value stored for a key, and whether one exists
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores the value for a key if the key is not already taken.
	// Returns false when another value was stored first.
	Set(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Close releases any resources held by the store
	Close() error
}
