package calls

import "testing"

func TestState_ForwardOnly(t *testing.T) {
	r := Record{CallID: "CA1", State: StateInitiated}

	for _, next := range []State{StateRecording, StateTranscribing, StateFormatting, StateCompleted} {
		if err := r.Advance(next); err != nil {
			t.Fatalf("advance to %s: %v", next, err)
		}
	}
	if r.State != StateCompleted {
		t.Fatalf("expected completed, got %s", r.State)
	}

	// Terminal: no further transitions.
	if err := r.Advance(StateFailed); err == nil {
		t.Fatalf("expected error advancing out of completed")
	}
}

func TestState_NoBackwardTransitions(t *testing.T) {
	r := Record{CallID: "CA1", State: StateFormatting}
	if err := r.Advance(StateRecording); err == nil {
		t.Fatalf("expected error moving formatting -> recording")
	}
	if err := r.Advance(StateFormatting); err == nil {
		t.Fatalf("expected error on self-transition")
	}
	if r.State != StateFormatting {
		t.Fatalf("state mutated on rejected transition: %s", r.State)
	}
}

func TestState_FailedIsAbsorbing(t *testing.T) {
	r := Record{CallID: "CA1", State: StateTranscribing}
	r.Fail("gateway down")

	if r.State != StateFailed || r.ErrorMessage != "gateway down" {
		t.Fatalf("unexpected record: %+v", r)
	}
	if err := r.Advance(StateFormatting); err == nil {
		t.Fatalf("expected error advancing out of failed")
	}

	// A later failure must not overwrite the original reason.
	r.Fail("second reason")
	if r.ErrorMessage != "gateway down" {
		t.Fatalf("fail overwrote terminal record: %q", r.ErrorMessage)
	}
}

func TestState_FailDoesNotClobberCompleted(t *testing.T) {
	r := Record{CallID: "CA1", State: StateCompleted}
	r.Fail("late failure")
	if r.State != StateCompleted || r.ErrorMessage != "" {
		t.Fatalf("completed record mutated: %+v", r)
	}
}

func TestState_After(t *testing.T) {
	if !StateTranscribing.After(StateRecording) {
		t.Fatalf("transcribing should be after recording")
	}
	if StateRecording.After(StateRecording) {
		t.Fatalf("a state is not after itself")
	}
	// Failed sits outside the happy-path ordering entirely.
	if StateFailed.After(StateCompleted) || StateFailed.After(StateRecording) {
		t.Fatalf("failed is not on the happy path")
	}
	if StateCompleted.After(StateFailed) {
		t.Fatalf("nothing is after failed")
	}
}

func TestStyle_Valid(t *testing.T) {
	for _, s := range []Style{StyleEmail, StyleNotes, StyleMeeting, StyleRaw} {
		if !s.Valid() {
			t.Fatalf("style %q should be valid", s)
		}
	}
	if Style("haiku").Valid() {
		t.Fatalf("unknown style accepted")
	}
}
