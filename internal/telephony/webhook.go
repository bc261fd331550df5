package telephony

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// Twilio posts webhooks as application/x-www-form-urlencoded. These parsers
// capture only the fields the pipeline cares about and validate the required
// ones up front, so malformed events never reach the orchestrator.
//
// Ref: https://www.twilio.com/docs/voice/twiml

// VoiceForm is the inbound-call webhook payload.
type VoiceForm struct {
	CallSid    string
	From       string
	To         string
	CallStatus string
	Direction  string
	CallerName string
}

var ErrMissingField = errors.New("telephony: missing required webhook field")

func ParseVoiceWebhook(r *http.Request) (VoiceForm, error) {
	if err := r.ParseForm(); err != nil {
		return VoiceForm{}, err
	}
	f := VoiceForm{
		CallSid:    strings.TrimSpace(r.PostFormValue("CallSid")),
		From:       strings.TrimSpace(r.PostFormValue("From")),
		To:         strings.TrimSpace(r.PostFormValue("To")),
		CallStatus: r.PostFormValue("CallStatus"),
		Direction:  r.PostFormValue("Direction"),
		CallerName: r.PostFormValue("CallerName"),
	}
	if f.CallSid == "" || f.From == "" || f.To == "" {
		return VoiceForm{}, ErrMissingField
	}
	return f, nil
}

// RecordingForm is the recording-complete webhook payload.
type RecordingForm struct {
	CallSid         string
	RecordingSid    string
	RecordingURL    string
	RecordingStatus string
	DurationSeconds int
}

func ParseRecordingWebhook(r *http.Request) (RecordingForm, error) {
	if err := r.ParseForm(); err != nil {
		return RecordingForm{}, err
	}
	f := RecordingForm{
		CallSid:         strings.TrimSpace(r.PostFormValue("CallSid")),
		RecordingSid:    r.PostFormValue("RecordingSid"),
		RecordingURL:    strings.TrimSpace(r.PostFormValue("RecordingUrl")),
		RecordingStatus: r.PostFormValue("RecordingStatus"),
	}
	// Twilio sends duration as a decimal string.
	if d := strings.TrimSpace(r.PostFormValue("RecordingDuration")); d != "" {
		n, err := strconv.Atoi(d)
		if err == nil {
			f.DurationSeconds = n
		}
	}
	if f.CallSid == "" || f.RecordingURL == "" {
		return RecordingForm{}, ErrMissingField
	}
	return f, nil
}
