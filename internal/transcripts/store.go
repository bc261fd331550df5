package transcripts

import (
	"context"
	"errors"
	"time"

	"transcribeme/internal/calls"
)

// Entry is an immutable published transcript, retrievable by id until expiry.
//
// The id doubles as the read capability: it must be high-entropy because
// knowing it grants access to the content.
type Entry struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	Style     calls.Style `json:"style"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

var (
	// ErrDuplicate means an id collision on Put. With uuid-generated ids this
	// is an invariant violation, not an expected outcome.
	ErrDuplicate = errors.New("transcripts: duplicate transcript id")
	ErrNotFound  = errors.New("transcripts: not found")
	// ErrExpired is returned exactly while an expired entry is still present;
	// the read that observes it also evicts, so the next read gets ErrNotFound.
	ErrExpired = errors.New("transcripts: expired")
)

// Store holds published entries. Entries are never mutated: an entry is
// present-and-unexpired, present-and-expired (evicted by the next Get), or
// absent.
type Store interface {
	Put(ctx context.Context, e Entry) error
	// Get returns the entry, or ErrExpired (evicting it) when now is past
	// ExpiresAt, or ErrNotFound.
	Get(ctx context.Context, id string) (Entry, error)
}
