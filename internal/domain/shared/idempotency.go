package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which deliveries already ran. Keys are opaque
// to the store; handlers namespace them per consumer.
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl. It returns false when the key was
	// already claimed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	IsProcessed(ctx context.Context, key string) (bool, error)

	// Forget releases a claim so a redelivery runs again
	Forget(ctx context.Context, key string) error

	Close() error
}

// DefaultDedupWindow is how long a delivered event stays claimed
const DefaultDedupWindow = 24 * time.Hour
