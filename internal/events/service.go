package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"transcribeme/internal/calls"
)

// Repository is the persistence contract for the event trail.
//
// It MUST be append-only. No Update/Delete methods are provided.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records pipeline events for internal ops visibility.
//
// Callers should treat recording as best-effort: log a failure and move on,
// never fail the call because the trail could not be written.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("events: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s == nil {
		return nil
	}
	if s.repo == nil {
		return errors.New("events: repository not configured")
	}
	if e.CallID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogStateChange records a lifecycle transition.
func (s *Service) LogStateChange(ctx context.Context, callID string, from, to calls.State) error {
	return s.Append(ctx, Event{
		CallID:    callID,
		Type:      EventTypeStateChange,
		FromState: from,
		ToState:   to,
	})
}

// LogFailure records a terminal failure with its reason.
func (s *Service) LogFailure(ctx context.Context, callID string, from calls.State, reason string) error {
	return s.Append(ctx, Event{
		CallID:    callID,
		Type:      EventTypeFailure,
		FromState: from,
		ToState:   calls.StateFailed,
		Message:   reason,
	})
}

// LogNotification records that the caller was notified.
func (s *Service) LogNotification(ctx context.Context, callID, message string) error {
	return s.Append(ctx, Event{
		CallID:  callID,
		Type:    EventTypeNotification,
		Message: message,
	})
}
