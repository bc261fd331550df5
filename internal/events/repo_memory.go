package events

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory append-only repository. The trail is bounded so
// a long-running process does not grow without limit; the oldest events are
// dropped once the cap is reached.

const defaultCap = 1000

type MemoryRepo struct {
	mu     sync.Mutex
	cap    int
	events []Event
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{cap: defaultCap} }

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if len(r.events) > r.cap {
		r.events = r.events[len(r.events)-r.cap:]
	}
	return nil
}

// Events returns a copy of the trail, oldest first.
func (r *MemoryRepo) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
