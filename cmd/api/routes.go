package main

import (
	"transcribeme/internal/calls"
	"transcribeme/internal/config"
	"transcribeme/internal/httpapi"
	"transcribeme/internal/pipeline"
	"transcribeme/internal/transcripts"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, pipe *pipeline.Pipeline, callStore calls.Store,
	transcriptStore transcripts.Store, eventSource httpapi.EventSource, cfg config.Config) {

	h := httpapi.Handlers{
		Pipeline:      pipe,
		Calls:         callStore,
		Transcripts:   transcriptStore,
		Events:        eventSource,
		ServiceNumber: cfg.Twilio.PhoneNumber,
		Version:       version,
	}

	r.GET("/", h.HandleRoot)
	r.GET("/healthz", h.HandleHealth)

	// Twilio webhooks (public).
	// NOTE: These should be protected by Twilio signature validation in production.
	r.POST("/webhook/voice", h.HandleVoice)
	r.POST("/webhook/recording", h.HandleRecording)
	r.POST("/webhook/recording-status", h.HandleRecordingStatus)

	// Transcript read path. The unguessable id is the access capability.
	r.GET("/transcript/:id", h.HandleTranscript)

	// Debug surface: dumps call records and the event trail, deliberately
	// unauthenticated.
	r.GET("/admin/calls", h.HandleAdminCalls)
	r.GET("/admin/events", h.HandleAdminEvents)
}
