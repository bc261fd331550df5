package telephony

import (
	"bytes"
	"encoding/xml"
)

// TwiML response builder. Deliberately avoids the provider SDK: the verbs we
// need (Say, Record, Hangup) are a tiny XML surface.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlRecord struct {
	XMLName                 xml.Name `xml:"Record"`
	Action                  string   `xml:"action,attr"`
	Method                  string   `xml:"method,attr"`
	MaxLength               int      `xml:"maxLength,attr,omitempty"`
	PlayBeep                bool     `xml:"playBeep,attr"`
	Trim                    string   `xml:"trim,attr,omitempty"`
	RecordingStatusCallback string   `xml:"recordingStatusCallback,attr,omitempty"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// DefaultVoice matches what the service has always used for prompts.
const DefaultVoice = "alice"

// RecordParams configures the TwiML Record verb.
type RecordParams struct {
	// ActionURL receives the recording-complete callback (POST).
	ActionURL string
	// StatusCallbackURL receives recording status updates, optional.
	StatusCallbackURL string
	MaxLengthSeconds  int
	// TrimSilence asks Twilio to strip leading/trailing silence.
	TrimSilence bool
}

// TwiML accumulates verbs and renders the XML document.
type TwiML struct {
	verbs []any
}

func (t *TwiML) Say(text string) *TwiML {
	t.verbs = append(t.verbs, twimlSay{Voice: DefaultVoice, Text: text})
	return t
}

func (t *TwiML) Record(p RecordParams) *TwiML {
	rec := twimlRecord{
		Action:                  p.ActionURL,
		Method:                  "POST",
		MaxLength:               p.MaxLengthSeconds,
		PlayBeep:                true,
		RecordingStatusCallback: p.StatusCallbackURL,
	}
	if p.TrimSilence {
		rec.Trim = "trim-silence"
	}
	t.verbs = append(t.verbs, rec)
	return t
}

func (t *TwiML) Hangup() *TwiML {
	t.verbs = append(t.verbs, twimlHangup{})
	return t
}

func (t *TwiML) Render() (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(twimlResponse{Verbs: t.verbs}); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
