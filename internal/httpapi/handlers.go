package httpapi

import (
	"errors"
	"net/http"
	"time"

	"transcribeme/internal/calls"
	"transcribeme/internal/events"
	"transcribeme/internal/pipeline"
	"transcribeme/internal/telephony"
	"transcribeme/internal/transcripts"
	"transcribeme/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call the pipeline or stores, render.

// EventSource lists recorded pipeline events, oldest first.
type EventSource interface {
	Events() []events.Event
}

type Handlers struct {
	Pipeline    *pipeline.Pipeline
	Calls       calls.Store
	Transcripts transcripts.Store
	Events      EventSource

	// ServiceNumber is shown on the root endpoint so people know what to dial.
	ServiceNumber string
	Version       string

	Now func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// --- Webhooks ---

const (
	rejectPrompt = "Sorry, this service is only available for New Zealand mobile phone numbers. " +
		"Please call from a New Zealand mobile device."
	greetPrompt = "Welcome to TranscribeMe! This service is for New Zealand mobile numbers. " +
		"Please speak your message after the beep. " +
		"Your call will be transcribed and sent to you via text message. " +
		"You have up to 5 minutes."
	thanksPrompt = "Thank you! Your message has been recorded and will be transcribed shortly. " +
		"You'll receive a text message with your transcript."
)

// HandleVoice accepts or rejects an inbound call and answers with TwiML.
func (h Handlers) HandleVoice(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := telephony.ParseVoiceWebhook(c.Request)
	if err != nil {
		log.Warn("voice webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	decision, err := h.Pipeline.AcceptCall(c.Request.Context(), pipeline.InboundCall{
		CallID: form.CallSid,
		From:   form.From,
		To:     form.To,
		Style:  calls.Style(c.Query("style")),
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrValidation) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid event"})
			return
		}
		log.Error("call acceptance failed", "call_id", form.CallSid, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call handling failed"})
		return
	}

	var twiml telephony.TwiML
	if !decision.Accepted {
		twiml.Say(rejectPrompt).Hangup()
	} else {
		twiml.Say(greetPrompt).Record(telephony.RecordParams{
			ActionURL:         decision.Recording.CallbackURL,
			StatusCallbackURL: decision.Recording.StatusCallbackURL,
			MaxLengthSeconds:  decision.Recording.MaxDurationSeconds,
			TrimSilence:       decision.Recording.TrimSilence,
		}).Say(thanksPrompt)
	}

	xml, err := twiml.Render()
	if err != nil {
		log.Error("twiml render failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, xml)
}

// HandleRecording acknowledges the recording-complete event and hands the
// call to the pipeline. Twilio only needs an ack; processing is asynchronous.
func (h Handlers) HandleRecording(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := telephony.ParseRecordingWebhook(c.Request)
	if err != nil {
		log.Warn("recording webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	err = h.Pipeline.RecordingComplete(c.Request.Context(), pipeline.RecordingEvent{
		CallID:          form.CallSid,
		RecordingURL:    form.RecordingURL,
		DurationSeconds: form.DurationSeconds,
	})
	switch {
	case err == nil:
	case errors.Is(err, calls.ErrNotFound):
		// Unknown call sid: log it but still ack, Twilio retries won't help.
		log.Warn("recording event for unknown call", "call_id", form.CallSid)
	default:
		log.Error("recording event failed", "call_id", form.CallSid, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "recording handling failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// HandleRecordingStatus absorbs Twilio's recording status callbacks. The
// pipeline keys off the action callback, so status updates are log-only.
func (h Handlers) HandleRecordingStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// --- Transcript read ---

// HandleTranscript renders the hosted transcript page.
// 404 for unknown ids, 410 once the transcript has expired.
func (h Handlers) HandleTranscript(c *gin.Context) {
	log := logger.FromGin(c)

	id := c.Param("id")
	entry, err := h.Transcripts.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, transcripts.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "transcript not found"})
		return
	case errors.Is(err, transcripts.ErrExpired):
		c.AbortWithStatusJSON(http.StatusGone, gin.H{"error": "transcript has expired"})
		return
	case err != nil:
		log.Error("transcript lookup failed", "transcript_id", id, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "transcript lookup failed"})
		return
	}

	html, err := RenderTranscriptPage(entry)
	if err != nil {
		log.Error("transcript render failed", "transcript_id", id, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, html)
}

// --- Admin / info ---

// HandleAdminCalls dumps every call record. Deliberately unauthenticated and
// unpaginated; this is a debugging surface, not a tenant API.
func (h Handlers) HandleAdminCalls(c *gin.Context) {
	records, err := h.Calls.List(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": records})
}

// HandleAdminEvents dumps the pipeline event trail. Same debugging surface
// caveats as HandleAdminCalls.
func (h Handlers) HandleAdminEvents(c *gin.Context) {
	evs := []events.Event{}
	if h.Events != nil {
		evs = h.Events.Events()
	}
	c.JSON(http.StatusOK, gin.H{"events": evs})
}

func (h Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": h.now().UTC()})
}

func (h Handlers) HandleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":      "TranscribeMe",
		"version":      h.Version,
		"description":  "Phone-based transcription service",
		"phone_number": h.ServiceNumber,
	})
}
