// Package cache provides the short-lived shared state of the API: rate limit
// windows, one-shot locks and resend throttles. Redis backs it in deployed
// environments; a process-local store is used when Redis is not configured.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrLocked is returned when a lock is already held
var ErrLocked = errors.New("cache: key is locked")

// Store is the set of cache operations the API relies on
type Store interface {
	// Allow counts one hit against key in a fixed window of the given length.
	// It reports whether the hit is within limit, the hits left and the time
	// until the window resets.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)

	// Acquire takes a lock on key for at most ttl. It returns ErrLocked when
	// the key is already held. The returned func releases the lock.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)

	// Throttle reports whether key may act now; afterwards it may not act
	// again until interval has passed.
	Throttle(ctx context.Context, key string, interval time.Duration) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}

// Result is the outcome of a rate limit check
type Result struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// Key prefixes
const (
	prefixRate     = "eventup:rate:"
	prefixLock     = "eventup:lock:"
	prefixThrottle = "eventup:throttle:"
)
