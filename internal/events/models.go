package events

import (
	"time"

	"transcribeme/internal/calls"
)

// Event is an immutable, append-only record of something that happened to a
// call while it moved through the pipeline.
//
// Invariants:
// - Events are never updated or deleted.
// - Recording an event is best-effort; critical flows must not block on it.

type Event struct {
	ID     string `json:"id"`
	CallID string `json:"call_id"`

	// Type indicates the category of the record.
	Type EventType `json:"type"`

	// State transition captured by state_change and failure events.
	FromState calls.State `json:"from_state,omitempty"`
	ToState   calls.State `json:"to_state,omitempty"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type EventType string

const (
	EventTypeStateChange  EventType = "state_change"
	EventTypeFailure      EventType = "failure"
	EventTypeNotification EventType = "notification"
)
