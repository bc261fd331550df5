package calls

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrDuplicate is returned when a record with the same call id already
	// exists. Given provider-unique call ids this is an invariant violation.
	ErrDuplicate = errors.New("calls: duplicate call id")
	ErrNotFound  = errors.New("calls: record not found")
)

// Store is the persistence contract for call records.
//
// Update applies the mutator under mutual exclusion for the given record, so
// concurrent webhook deliveries for the same call are serialized. Mutations
// to different records must not block each other.
type Store interface {
	Create(ctx context.Context, r Record) error
	Get(ctx context.Context, callID string) (Record, error)
	Update(ctx context.Context, callID string, mutate func(*Record) error) (Record, error)
	List(ctx context.Context) ([]Record, error)
}

// MemoryStore keeps records in a map with one lock per record, plus an index
// lock for create/lookup. Records live for the process lifetime; aging them
// out is left to a durable backend.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*lockedRecord
}

type lockedRecord struct {
	mu  sync.Mutex
	rec Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*lockedRecord)}
}

func (s *MemoryStore) Create(ctx context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.CallID]; ok {
		return ErrDuplicate
	}
	s.records[r.CallID] = &lockedRecord{rec: r}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, callID string) (Record, error) {
	s.mu.RLock()
	lr, ok := s.records[callID]
	s.mu.RUnlock()
	if !ok {
		return Record{}, ErrNotFound
	}
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.rec, nil
}

func (s *MemoryStore) Update(ctx context.Context, callID string, mutate func(*Record) error) (Record, error) {
	s.mu.RLock()
	lr, ok := s.records[callID]
	s.mu.RUnlock()
	if !ok {
		return Record{}, ErrNotFound
	}
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if err := mutate(&lr.rec); err != nil {
		return Record{}, err
	}
	return lr.rec, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, lr := range s.records {
		lr.mu.Lock()
		out = append(out, lr.rec)
		lr.mu.Unlock()
	}
	return out, nil
}
