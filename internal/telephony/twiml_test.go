package telephony

import (
	"strings"
	"testing"
)

func TestTwiML_AcceptFlow(t *testing.T) {
	var tw TwiML
	tw.Say("Welcome!").Record(RecordParams{
		ActionURL:         "https://x/webhook/recording",
		StatusCallbackURL: "https://x/webhook/recording-status",
		MaxLengthSeconds:  300,
		TrimSilence:       true,
	}).Say("Thanks!")

	xml, err := tw.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<Say voice="alice">Welcome!</Say>`,
		`action="https://x/webhook/recording"`,
		`method="POST"`,
		`maxLength="300"`,
		`playBeep="true"`,
		`trim="trim-silence"`,
		`recordingStatusCallback="https://x/webhook/recording-status"`,
		`<Say voice="alice">Thanks!</Say>`,
	} {
		if !strings.Contains(xml, want) {
			t.Fatalf("twiml missing %q:\n%s", want, xml)
		}
	}
}

func TestTwiML_RejectFlow(t *testing.T) {
	var tw TwiML
	tw.Say("Sorry, mobile numbers only.").Hangup()

	xml, err := tw.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(xml, "<Hangup") {
		t.Fatalf("missing hangup:\n%s", xml)
	}
	// The reject flow must never start a recording.
	if strings.Contains(xml, "<Record") {
		t.Fatalf("reject flow contains record verb:\n%s", xml)
	}
}

func TestTwiML_EscapesContent(t *testing.T) {
	var tw TwiML
	tw.Say(`a < b & "c"`)
	xml, err := tw.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(xml, `a < b`) {
		t.Fatalf("unescaped content:\n%s", xml)
	}
}
