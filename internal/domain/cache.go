package domain

import (
	"context"
	"time"
)

// QuoteCache stores recently fetched quote sets keyed by pair.
type QuoteCache interface {
	// Get returns ErrCacheMiss when no fresh entry exists.
	Get(ctx context.Context, pair Pair) (QuoteSet, error)
	Set(ctx context.Context, qs QuoteSet, ttl time.Duration) error
}

// SignalBus provides fire-and-forget pub/sub between components.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// RateLimiter is a keyed sliding-window limiter.
type RateLimiter interface {
	// Allow reports whether one more event for key fits in the window and
	// counts it if so.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Lease is a held distributed lock.
type Lease interface {
	// Refresh extends the lease. It returns ErrLockHeld once the lease was
	// lost to another holder.
	Refresh(ctx context.Context, ttl time.Duration) error
	// Release gives the lock up. It is safe to call more than once.
	Release()
}

// LockManager hands out exclusive leases by key.
type LockManager interface {
	// Acquire returns ErrLockHeld when another party holds key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}
