package telephony

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func formRequest(t *testing.T, path string, values url.Values) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestParseVoiceWebhook(t *testing.T) {
	r := formRequest(t, "/webhook/voice", url.Values{
		"CallSid":    {"CA123"},
		"From":       {" +64210822348 "},
		"To":         {"+6498765432"},
		"CallStatus": {"ringing"},
		"Direction":  {"inbound"},
	})

	form, err := ParseVoiceWebhook(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if form.CallSid != "CA123" {
		t.Fatalf("unexpected call sid %q", form.CallSid)
	}
	if form.From != "+64210822348" {
		t.Fatalf("from not trimmed: %q", form.From)
	}
	if form.Direction != "inbound" {
		t.Fatalf("unexpected direction %q", form.Direction)
	}
}

func TestParseVoiceWebhook_MissingFields(t *testing.T) {
	r := formRequest(t, "/webhook/voice", url.Values{"From": {"+64210822348"}})
	if _, err := ParseVoiceWebhook(r); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestParseRecordingWebhook(t *testing.T) {
	r := formRequest(t, "/webhook/recording", url.Values{
		"CallSid":           {"CA123"},
		"RecordingSid":      {"RE456"},
		"RecordingUrl":      {"https://api.twilio.com/rec/RE456"},
		"RecordingStatus":   {"completed"},
		"RecordingDuration": {"42"},
	})

	form, err := ParseRecordingWebhook(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if form.CallSid != "CA123" || form.RecordingSid != "RE456" {
		t.Fatalf("unexpected ids: %+v", form)
	}
	if form.RecordingURL != "https://api.twilio.com/rec/RE456" {
		t.Fatalf("unexpected url %q", form.RecordingURL)
	}
	if form.DurationSeconds != 42 {
		t.Fatalf("unexpected duration %d", form.DurationSeconds)
	}
}

func TestParseRecordingWebhook_MissingURL(t *testing.T) {
	r := formRequest(t, "/webhook/recording", url.Values{"CallSid": {"CA123"}})
	if _, err := ParseRecordingWebhook(r); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestParseRecordingWebhook_BadDurationIgnored(t *testing.T) {
	r := formRequest(t, "/webhook/recording", url.Values{
		"CallSid":           {"CA123"},
		"RecordingUrl":      {"https://api.twilio.com/rec/RE456"},
		"RecordingDuration": {"soon"},
	})
	form, err := ParseRecordingWebhook(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if form.DurationSeconds != 0 {
		t.Fatalf("expected zero duration, got %d", form.DurationSeconds)
	}
}
