// Package pipeline drives an accepted call from recording through
// transcription, formatting, transcript publication and SMS notification.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"transcribeme/internal/calls"
	"transcribeme/internal/eligibility"
	"transcribeme/internal/events"
	"transcribeme/internal/format"
	"transcribeme/internal/speech"
	"transcribeme/internal/transcripts"
)

// Notifier delivers a short text message to a phone number.
type Notifier interface {
	SendSMS(ctx context.Context, to, body string) error
}

// ErrValidation marks an inbound event rejected before it reaches the state
// machine (missing required fields).
var ErrValidation = errors.New("pipeline: invalid event")

// Config carries all tunables; no component reads ambient settings.
type Config struct {
	// BaseURL is the public origin used to build webhook callbacks and
	// transcript links, e.g. "https://transcribe.example.com".
	BaseURL string

	// Retention is how long a published transcript stays readable.
	Retention time.Duration

	MaxRecordingSeconds int
	SummaryMaxChars     int

	// GatewayTimeout bounds each external call (speech, formatting, SMS).
	GatewayTimeout time.Duration

	Workers   int
	QueueSize int
}

func (c Config) withDefaults() Config {
	out := c
	if out.Retention <= 0 {
		out.Retention = 7 * 24 * time.Hour
	}
	if out.MaxRecordingSeconds <= 0 {
		out.MaxRecordingSeconds = 300
	}
	if out.SummaryMaxChars <= 0 {
		out.SummaryMaxChars = 160
	}
	if out.GatewayTimeout <= 0 {
		out.GatewayTimeout = 30 * time.Second
	}
	if out.Workers <= 0 {
		out.Workers = 4
	}
	if out.QueueSize <= 0 {
		out.QueueSize = 64
	}
	return out
}

// Pipeline is the call orchestrator. It owns every mutation of a call record
// and never lets one call's failure affect another.
type Pipeline struct {
	cfg Config

	store   calls.Store
	library transcripts.Store
	filter  *eligibility.Filter
	stt     speech.Transcriber
	fmtr    format.Formatter
	notify  Notifier
	trail   *events.Service

	log   *slog.Logger
	clock func() time.Time
	newID func() string

	queue chan string
	done  chan struct{}
}

func New(cfg Config, store calls.Store, library transcripts.Store, filter *eligibility.Filter,
	stt speech.Transcriber, fmtr format.Formatter, notify Notifier, log *slog.Logger) *Pipeline {
	cfg = cfg.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		cfg:     cfg,
		store:   store,
		library: library,
		filter:  filter,
		stt:     stt,
		fmtr:    fmtr,
		notify:  notify,
		log:     log,
		clock:   time.Now,
		newID:   uuid.NewString,
		queue:   make(chan string, cfg.QueueSize),
		done:    make(chan struct{}),
	}
}

// WithEventTrail attaches the ops event trail. Recording events is
// best-effort; a nil trail disables it.
func (p *Pipeline) WithEventTrail(trail *events.Service) *Pipeline {
	p.trail = trail
	return p
}

func (p *Pipeline) logTrail(err error) {
	if err != nil {
		p.log.Warn("event trail write failed", "err", err)
	}
}

// InboundCall is the call-acceptance event from the telephony layer.
type InboundCall struct {
	CallID string
	From   string
	To     string
	Style  calls.Style
}

// RecordingInstructions tell the telephony layer how to record the message.
type RecordingInstructions struct {
	CallbackURL        string
	StatusCallbackURL  string
	MaxDurationSeconds int
	TrimSilence        bool
}

// Decision is the outcome of call acceptance.
type Decision struct {
	Accepted     bool
	RejectReason eligibility.Reason
	Recording    RecordingInstructions
}

// AcceptCall runs the eligibility filter and, when the caller is allowed,
// creates the call record and instructs recording.
func (p *Pipeline) AcceptCall(ctx context.Context, in InboundCall) (Decision, error) {
	if in.CallID == "" || in.From == "" {
		return Decision{}, ErrValidation
	}
	style := in.Style
	if style == "" {
		style = calls.DefaultStyle
	}
	if !style.Valid() {
		return Decision{}, fmt.Errorf("%w: style %q", ErrValidation, in.Style)
	}

	if d := p.filter.Check(in.From); !d.Allowed {
		p.log.Warn("call rejected", "call_id", in.CallID, "from", in.From, "reason", d.Reason)
		return Decision{RejectReason: d.Reason}, nil
	}

	rec := calls.Record{
		CallID:    in.CallID,
		From:      in.From,
		To:        in.To,
		State:     calls.StateInitiated,
		Style:     style,
		CreatedAt: p.clock().UTC(),
	}
	if err := p.store.Create(ctx, rec); err != nil {
		if errors.Is(err, calls.ErrDuplicate) {
			// Duplicate call ids only happen on a provider replay of the
			// voice webhook or a broken provider; fail the existing record.
			p.log.Error("duplicate call id on accept", "call_id", in.CallID)
			_, _ = p.store.Update(ctx, in.CallID, func(r *calls.Record) error {
				r.Fail("duplicate call id on accept")
				return nil
			})
		}
		return Decision{}, fmt.Errorf("pipeline: create call record: %w", err)
	}

	// Recording is instructed as part of this same response.
	if _, err := p.store.Update(ctx, in.CallID, func(r *calls.Record) error {
		return r.Advance(calls.StateRecording)
	}); err != nil {
		return Decision{}, fmt.Errorf("pipeline: advance to recording: %w", err)
	}

	p.log.Info("call accepted", "call_id", in.CallID, "from", in.From, "style", style)
	p.logTrail(p.trail.LogStateChange(ctx, in.CallID, calls.StateInitiated, calls.StateRecording))
	return Decision{
		Accepted: true,
		Recording: RecordingInstructions{
			CallbackURL:        p.cfg.BaseURL + "/webhook/recording",
			StatusCallbackURL:  p.cfg.BaseURL + "/webhook/recording-status",
			MaxDurationSeconds: p.cfg.MaxRecordingSeconds,
			TrimSilence:        true,
		},
	}, nil
}

// RecordingEvent is the recording-complete event from the telephony layer.
type RecordingEvent struct {
	CallID          string
	RecordingURL    string
	DurationSeconds int
}

// RecordingComplete stores the recording locator, moves the call to
// transcribing and hands it to a worker. It returns as soon as the record is
// updated; the heavy work happens off the webhook request.
//
// Idempotent per call id: a duplicate delivery for a call already past the
// recording state is a no-op.
func (p *Pipeline) RecordingComplete(ctx context.Context, ev RecordingEvent) error {
	if ev.CallID == "" || ev.RecordingURL == "" {
		return ErrValidation
	}

	enqueue := false
	_, err := p.store.Update(ctx, ev.CallID, func(r *calls.Record) error {
		if r.State.Terminal() || r.State.After(calls.StateRecording) {
			// Duplicate delivery; the first one won.
			return nil
		}
		r.RecordingURL = ev.RecordingURL
		if err := r.Advance(calls.StateTranscribing); err != nil {
			return err
		}
		enqueue = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("pipeline: recording complete for %s: %w", ev.CallID, err)
	}
	if !enqueue {
		p.log.Info("duplicate recording event ignored", "call_id", ev.CallID)
		return nil
	}

	p.logTrail(p.trail.LogStateChange(ctx, ev.CallID, calls.StateRecording, calls.StateTranscribing))

	select {
	case p.queue <- ev.CallID:
		p.log.Info("recording queued", "call_id", ev.CallID, "duration_s", ev.DurationSeconds)
		return nil
	default:
		p.failCall(ctx, ev.CallID, "pipeline queue full")
		return fmt.Errorf("pipeline: queue full, call %s failed", ev.CallID)
	}
}

func (p *Pipeline) failCall(ctx context.Context, callID, reason string) {
	p.log.Error("call failed", "call_id", callID, "reason", reason)
	var from calls.State
	if _, err := p.store.Update(ctx, callID, func(r *calls.Record) error {
		from = r.State
		r.Fail(reason)
		return nil
	}); err != nil {
		p.log.Error("failed to mark call failed", "call_id", callID, "err", err)
		return
	}
	p.logTrail(p.trail.LogFailure(ctx, callID, from, reason))
}
