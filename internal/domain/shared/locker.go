package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EntityLocker provides mutual exclusion keyed by entity identity
type EntityLocker interface {
	// Acquire blocks until key is held, the acquire timeout passes or ctx is done.
	// On timeout it returns a CONCURRENCY_CONFLICT error.
	// The returned release func must be called exactly once.
	Acquire(ctx context.Context, key string) (release func(), err error)

	// Close releases resources held by the locker
	Close() error
}

// LockConfig holds configuration for entity locking
type LockConfig struct {
	// TTL bounds how long a distributed lock survives a crashed holder
	TTL time.Duration

	// AcquireTimeout is how long Acquire waits before giving up
	AcquireTimeout time.Duration

	// RetryInterval is the polling interval for distributed lockers
	RetryInterval time.Duration
}

// DefaultLockConfig returns the default lock configuration
func DefaultLockConfig() LockConfig {
	return LockConfig{
		TTL:            30 * time.Second,
		AcquireTimeout: 5 * time.Second,
		RetryInterval:  25 * time.Millisecond,
	}
}

// LockKey builds the locker key for an entity, e.g. "property:<id>"
func LockKey(kind string, id uuid.UUID) string {
	return kind + ":" + id.String()
}

// NewLockTimeoutError reports that a lock could not be acquired in time
func NewLockTimeoutError(key string) *DomainError {
	return NewDomainError(CodeConcurrencyConflict, "Timed out waiting for lock on "+key)
}
