package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

type memoryCounter struct {
	count     int64
	expiresAt time.Time
}

type memoryLockState struct {
	owner     uint64
	expiresAt time.Time
}

// MemoryStore is an in-process Store backed by mutex-guarded maps.
// Expired entries are dropped lazily on access.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	counters map[string]memoryCounter
	locks    map[string]memoryLockState
	nextOwn  uint64

	now func() time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]memoryEntry),
		counters: make(map[string]memoryCounter),
		locks:    make(map[string]memoryLockState),
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		return nil, ErrNotFound
	}

	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{value: stored, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	counter, ok := s.counters[key]
	if !ok || now.After(counter.expiresAt) {
		counter = memoryCounter{count: 0, expiresAt: now.Add(ttl)}
	}
	counter.count++
	s.counters[key] = counter
	return counter.count, nil
}

func (s *MemoryStore) AcquireLock(ctx context.Context, key string, lease, wait time.Duration) (Lock, bool, error) {
	deadline := s.now().Add(wait)
	waited := false

	for {
		s.mu.Lock()
		now := s.now()
		state, held := s.locks[key]
		if !held || now.After(state.expiresAt) {
			s.nextOwn++
			owner := s.nextOwn
			s.locks[key] = memoryLockState{owner: owner, expiresAt: now.Add(lease)}
			s.mu.Unlock()
			return &memoryLock{store: s, key: key, owner: owner}, waited, nil
		}
		s.mu.Unlock()

		waited = true
		if s.now().After(deadline) {
			return nil, true, ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			return nil, true, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

func (s *MemoryStore) Close() error {
	return nil
}

type memoryLock struct {
	store *MemoryStore
	key   string
	owner uint64
}

func (l *memoryLock) Release(_ context.Context) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	if state, ok := l.store.locks[l.key]; ok && state.owner == l.owner {
		delete(l.store.locks, l.key)
	}
	return nil
}
