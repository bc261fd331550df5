package calls

import (
	"fmt"
	"time"
)

// Record tracks a single accepted call through the transcription pipeline.
//
// Ownership invariant: a Record is mutated exclusively by the pipeline that
// created it, always through Store.Update. Handlers and read paths only get
// copies.
//
// NOTE: provider-specific identifiers (the Twilio CallSid) are used directly
// as CallID because the provider guarantees uniqueness per call.

type Record struct {
	CallID string `json:"call_id" db:"call_id"`

	From string `json:"from" db:"from_number"`
	To   string `json:"to" db:"to_number"`

	State State `json:"state" db:"state"`

	// RecordingURL is set once, when the recording-complete event arrives.
	RecordingURL string `json:"recording_url,omitempty" db:"recording_url"`

	RawTranscript       string `json:"raw_transcript,omitempty" db:"raw_transcript"`
	FormattedTranscript string `json:"formatted_transcript,omitempty" db:"formatted_transcript"`

	Style Style `json:"style" db:"style"`

	// TranscriptID is the published transcript lookup key; set at most once.
	TranscriptID string `json:"transcript_id,omitempty" db:"transcript_id"`

	SMSSent bool `json:"sms_sent" db:"sms_sent"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`

	// ErrorMessage is set only when State == StateFailed.
	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`
}

type State string

const (
	StateInitiated    State = "initiated"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
	StateFormatting   State = "formatting"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
)

// stateRank orders the happy path. StateFailed sits outside the ordering:
// it is reachable from any non-terminal state and absorbing.
var stateRank = map[State]int{
	StateInitiated:    0,
	StateRecording:    1,
	StateTranscribing: 2,
	StateFormatting:   3,
	StateCompleted:    4,
}

func (s State) Valid() bool {
	if s == StateFailed {
		return true
	}
	_, ok := stateRank[s]
	return ok
}

// Terminal reports whether no further transitions are allowed.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// After reports whether s is strictly past other on the happy path.
// StateFailed sits outside the ordering and is after nothing; callers that
// should treat a failed record as done check Terminal separately.
func (s State) After(other State) bool {
	if s == StateFailed || other == StateFailed {
		return false
	}
	return stateRank[s] > stateRank[other]
}

// Advance moves the record forward to next. Transitions only ever move
// forward; backward or out-of-terminal transitions are programmer errors.
func (r *Record) Advance(next State) error {
	if !next.Valid() {
		return fmt.Errorf("calls: unknown state %q", next)
	}
	if r.State.Terminal() {
		return fmt.Errorf("calls: record %s is terminal (%s)", r.CallID, r.State)
	}
	if next == StateFailed {
		r.State = StateFailed
		return nil
	}
	if stateRank[next] <= stateRank[r.State] {
		return fmt.Errorf("calls: cannot move %s from %s back to %s", r.CallID, r.State, next)
	}
	r.State = next
	return nil
}

// Fail drives the record to the failed terminal state with a reason.
// Failing an already-terminal record is a no-op so a late failure cannot
// clobber a completed call.
func (r *Record) Fail(reason string) {
	if r.State.Terminal() {
		return
	}
	r.State = StateFailed
	r.ErrorMessage = reason
}

// Style is the requested output formatting for the transcript.
type Style string

const (
	StyleEmail   Style = "email"
	StyleNotes   Style = "notes"
	StyleMeeting Style = "meeting"
	StyleRaw     Style = "raw"
)

// DefaultStyle is used for callers who have not chosen a format.
const DefaultStyle = StyleNotes

func (s Style) Valid() bool {
	switch s {
	case StyleEmail, StyleNotes, StyleMeeting, StyleRaw:
		return true
	default:
		return false
	}
}
