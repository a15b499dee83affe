// Package store provides the shared key-value backend used by the minute
// cache and the rate limiter. Two implementations exist: an in-process
// memory store for single-instance deployments and tests, and a Redis
// store for multi-instance deployments.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("store: key not found")

// Lock is a lease-based mutual exclusion handle scoped to one key.
// Release is safe to call after the lease expires; it only removes
// the lock if this holder still owns it.
type Lock interface {
	Release(ctx context.Context) error
}

// Store is the backend contract shared by cache and rate limiting.
type Store interface {
	// Get returns the raw value stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value at key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Increment atomically increments the counter at key and sets the
	// TTL when the counter is created. Returns the new count.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// AcquireLock tries to take a lease lock on key. It polls until the
	// lock is acquired or wait elapses. Returns the lock, whether this
	// caller had to wait for a previous holder, and an error when the
	// wait budget is exhausted.
	AcquireLock(ctx context.Context, key string, lease, wait time.Duration) (Lock, bool, error)

	// Close releases backend resources.
	Close() error
}

// ErrLockTimeout is returned by AcquireLock when the wait budget elapses
// before the current holder releases.
var ErrLockTimeout = errors.New("store: lock wait timed out")

// lockPollInterval is how often AcquireLock re-checks a held lock.
const lockPollInterval = 50 * time.Millisecond
