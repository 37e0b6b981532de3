package shared

import (
	"context"
	"time"
)

// IdempotencyStore tracks processed idempotency keys so that retried
// stock adjustments are applied at most once.
type IdempotencyStore interface {
	// MarkProcessed atomically records the key. It returns true when the
	// key was newly recorded and false when it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the key has already been recorded.
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release removes a key so the caller can retry an operation that was
	// marked but never applied.
	Release(ctx context.Context, key string) error

	// Close releases resources held by the store.
	Close() error
}

// IdempotencyConfig controls replay protection for write operations
// that accept a client-supplied idempotency key.
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency settings.
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
