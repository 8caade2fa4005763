package cache

import (
	"context"
	"sync"
	"time"
)

// InMemoryClaimStore records claimed keys until they expire.
// Claims are only visible inside one process.
type InMemoryClaimStore struct {
	mu        sync.Mutex
	claims    map[string]time.Time
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryClaimStore creates a store that sweeps expired claims every
// sweepInterval. A non-positive interval disables sweeping.
func NewInMemoryClaimStore(sweepInterval time.Duration) *InMemoryClaimStore {
	store := &InMemoryClaimStore{
		claims:   make(map[string]time.Time),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	if sweepInterval > 0 {
		store.wg.Add(1)
		go store.sweepLoop(sweepInterval)
	}

	return store
}

// Claim takes key for ttl. It returns false while an earlier claim on the
// same key is still live.
func (s *InMemoryClaimStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiresAt, ok := s.claims[key]; ok && now.Before(expiresAt) {
		return false, nil
	}
	s.claims[key] = now.Add(ttl)
	return true, nil
}

// IsClaimed reports whether key holds a live claim
func (s *InMemoryClaimStore) IsClaimed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.claims[key]
	return ok && s.now().Before(expiresAt), nil
}

// Close stops the sweeper. Safe to call multiple times.
func (s *InMemoryClaimStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryClaimStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryClaimStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, expiresAt := range s.claims {
		if !now.Before(expiresAt) {
			delete(s.claims, key)
		}
	}
}

// size returns the number of tracked claims, expired ones included
func (s *InMemoryClaimStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.claims)
}
