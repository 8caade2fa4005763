package cache

import (
	"context"
	"sync"
	"time"

	"github.com/estateflow/backend/internal/domain/shared"
)

// slot is the per-key mutex. refs counts holders and waiters so idle
// slots can be dropped from the map.
type slot struct {
	ch   chan struct{}
	refs int
}

// InMemoryEntityLocker implements EntityLocker with keyed in-process mutexes.
// This is suitable for single-instance deployments and testing.
// LockConfig.TTL is not applied: a lock is held until its release func runs.
type InMemoryEntityLocker struct {
	mu     sync.Mutex
	slots  map[string]*slot
	config shared.LockConfig
	closed bool
}

// NewInMemoryEntityLocker creates a new in-memory entity locker
func NewInMemoryEntityLocker(cfg shared.LockConfig) *InMemoryEntityLocker {
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = shared.DefaultLockConfig().AcquireTimeout
	}
	return &InMemoryEntityLocker{
		slots:  make(map[string]*slot),
		config: cfg,
	}
}

// Acquire blocks until key is free, the acquire timeout passes or ctx is done
func (l *InMemoryEntityLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, shared.NewDomainError(shared.CodeConcurrencyConflict, "Entity locker is closed")
	}
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.config.AcquireTimeout)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, s)
		return nil, ctx.Err()
	case <-timer.C:
		l.unref(key, s)
		return nil, shared.NewLockTimeoutError(key)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.unref(key, s)
		})
	}, nil
}

// unref drops one reference and removes the slot once nobody uses it
func (l *InMemoryEntityLocker) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 && l.slots[key] == s {
		delete(l.slots, key)
	}
}

// Close rejects further acquisitions. Held locks stay valid until released.
// Safe to call multiple times
func (l *InMemoryEntityLocker) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

// heldKeys returns the number of keys currently tracked
func (l *InMemoryEntityLocker) heldKeys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

// Ensure InMemoryEntityLocker implements EntityLocker
var _ shared.EntityLocker = (*InMemoryEntityLocker)(nil)
