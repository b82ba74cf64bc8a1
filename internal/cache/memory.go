package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count     int
	expiresAt time.Time
}

// MemoryStore implements Store in process memory. It is used when Redis is
// not configured and in tests; state is not shared between instances.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*entry), now: time.Now}
}

// live returns the unexpired entry for key, dropping it when expired
func (s *MemoryStore) live(key string, now time.Time) *entry {
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	if !now.Before(e.expiresAt) {
		delete(s.entries, key)
		return nil
	}
	return e
}

// Allow implements Store
func (s *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key = prefixRate + key
	e := s.live(key, now)
	if e == nil {
		e = &entry{expiresAt: now.Add(window)}
		s.entries[key] = e
	}
	e.count++

	remaining := limit - e.count
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: e.count <= limit, Remaining: remaining, ResetIn: e.expiresAt.Sub(now)}, nil
}

// Acquire implements Store
func (s *MemoryStore) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key = prefixLock + key
	if s.live(key, now) != nil {
		return nil, ErrLocked
	}
	held := &entry{count: 1, expiresAt: now.Add(ttl)}
	s.entries[key] = held
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.entries[key] == held {
			delete(s.entries, key)
		}
	}, nil
}

// Throttle implements Store
func (s *MemoryStore) Throttle(_ context.Context, key string, interval time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key = prefixThrottle + key
	if s.live(key, now) != nil {
		return false, nil
	}
	s.entries[key] = &entry{count: 1, expiresAt: now.Add(interval)}
	return true, nil
}

// Ping implements Store
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close implements Store
func (s *MemoryStore) Close() error { return nil }
