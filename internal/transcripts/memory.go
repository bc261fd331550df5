package transcripts

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the default in-memory Store. Eviction is lazy: an expired
// entry is removed by the first Get that observes it. Delete-on-read is
// idempotent under the lock, so two concurrent reads of the same expired id
// cannot race.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry

	// clock is injectable for deterministic expiry tests.
	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry), clock: time.Now}
}

func (s *MemoryStore) Put(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e.ID]; ok {
		return ErrDuplicate
	}
	s.entries[e.ID] = e
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	if s.clock().UTC().After(e.ExpiresAt) {
		delete(s.entries, id)
		return Entry{}, ErrExpired
	}
	return e, nil
}

var _ Store = (*MemoryStore)(nil)
