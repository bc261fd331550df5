package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"transcribeme/internal/calls"
	"transcribeme/internal/eligibility"
	"transcribeme/internal/pipeline"
	"transcribeme/internal/transcripts"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubStt struct{}

func (stubStt) Transcribe(ctx context.Context, recordingURL string) (string, error) {
	return "buy milk", nil
}

type stubFormatter struct{}

func (stubFormatter) Format(ctx context.Context, raw string, style calls.Style) (string, error) {
	return "- Buy milk", nil
}

func (stubFormatter) Summarize(ctx context.Context, text string, maxChars int) (string, error) {
	return text, nil
}

type stubNotifier struct{}

func (stubNotifier) SendSMS(ctx context.Context, to, body string) error { return nil }

func newTestRouter(t *testing.T) (*gin.Engine, *calls.MemoryStore, *transcripts.MemoryStore) {
	t.Helper()

	callStore := calls.NewMemoryStore()
	library := transcripts.NewMemoryStore()
	filter := eligibility.New(eligibility.Config{
		CountryPrefixes:   []string{"+64"},
		MobileSubPrefixes: []string{"21", "22", "27", "29"},
	})
	pipe := pipeline.New(pipeline.Config{BaseURL: "https://x"}, callStore, library, filter,
		stubStt{}, stubFormatter{}, stubNotifier{},
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	h := Handlers{
		Pipeline:      pipe,
		Calls:         callStore,
		Transcripts:   library,
		ServiceNumber: "+6498765432",
		Version:       "test",
	}

	r := gin.New()
	r.POST("/webhook/voice", h.HandleVoice)
	r.POST("/webhook/recording", h.HandleRecording)
	r.GET("/transcript/:id", h.HandleTranscript)
	r.GET("/admin/calls", h.HandleAdminCalls)
	r.GET("/admin/events", h.HandleAdminEvents)
	r.GET("/healthz", h.HandleHealth)
	r.GET("/", h.HandleRoot)
	return r, callStore, library
}

func postForm(r *gin.Engine, path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleVoice_AcceptRendersRecordTwiML(t *testing.T) {
	r, callStore, _ := newTestRouter(t)

	w := postForm(r, "/webhook/voice", url.Values{
		"CallSid":    {"CA1"},
		"From":       {"+64 21-082 2348"},
		"To":         {"+6498765432"},
		"CallStatus": {"ringing"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Fatalf("content type %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<Record") || !strings.Contains(body, "https://x/webhook/recording") {
		t.Fatalf("missing record verb:\n%s", body)
	}

	rec, err := callStore.Get(context.Background(), "CA1")
	if err != nil {
		t.Fatalf("record not created: %v", err)
	}
	if rec.State != calls.StateRecording {
		t.Fatalf("unexpected state %s", rec.State)
	}
}

func TestHandleVoice_RejectRendersHangup(t *testing.T) {
	r, callStore, _ := newTestRouter(t)

	w := postForm(r, "/webhook/voice", url.Values{
		"CallSid": {"CA1"},
		"From":    {"+15551234567"},
		"To":      {"+6498765432"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<Hangup") || strings.Contains(body, "<Record") {
		t.Fatalf("unexpected twiml:\n%s", body)
	}
	if _, err := callStore.Get(context.Background(), "CA1"); err == nil {
		t.Fatalf("rejected call must not create a record")
	}
}

func TestHandleVoice_StyleQueryParam(t *testing.T) {
	r, callStore, _ := newTestRouter(t)

	w := postForm(r, "/webhook/voice?style=email", url.Values{
		"CallSid": {"CA1"},
		"From":    {"+64210822348"},
		"To":      {"+6498765432"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	rec, _ := callStore.Get(context.Background(), "CA1")
	if rec.Style != calls.StyleEmail {
		t.Fatalf("style %q", rec.Style)
	}
}

func TestHandleVoice_MissingFields(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := postForm(r, "/webhook/voice", url.Values{"From": {"+64210822348"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}
}

func TestHandleRecording_AcksUnknownCall(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := postForm(r, "/webhook/recording", url.Values{
		"CallSid":      {"CA-unknown"},
		"RecordingUrl": {"https://api.twilio.com/rec/RE1"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("unknown call must still be acked, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "received") {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestHandleRecording_MissingFields(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := postForm(r, "/webhook/recording", url.Values{"CallSid": {"CA1"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}
}

func TestHandleTranscript(t *testing.T) {
	r, _, library := newTestRouter(t)
	now := time.Now().UTC()

	err := library.Put(context.Background(), transcripts.Entry{
		ID:        "tid-1",
		Content:   "- Buy milk",
		Style:     calls.StyleNotes,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transcript/tid-1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type %q", ct)
	}
	if !strings.Contains(w.Body.String(), "- Buy milk") {
		t.Fatalf("content missing:\n%s", w.Body.String())
	}
}

func TestHandleTranscript_NotFoundAndExpired(t *testing.T) {
	r, _, library := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transcript/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	now := time.Now().UTC()
	_ = library.Put(context.Background(), transcripts.Entry{
		ID:        "tid-old",
		Content:   "stale",
		CreatedAt: now.Add(-48 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	})

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transcript/tid-old", nil))
	if w.Code != http.StatusGone {
		t.Fatalf("expected 410 for expired, got %d", w.Code)
	}

	// The expired read evicted the entry; now it is simply gone.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transcript/tid-old", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after eviction, got %d", w.Code)
	}
}

func TestHandleAdminCalls(t *testing.T) {
	r, callStore, _ := newTestRouter(t)
	_ = callStore.Create(context.Background(), calls.Record{CallID: "CA1", State: calls.StateRecording})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/calls", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "CA1") {
		t.Fatalf("record missing from dump: %s", w.Body.String())
	}
}

func TestInfoEndpoints(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "healthy") {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "+6498765432") {
		t.Fatalf("root: %d %s", w.Code, w.Body.String())
	}
}

func TestHandleAdminEvents_EmptyWithoutSource(t *testing.T) {
	r, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/events", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"events":[]`) {
		t.Fatalf("expected empty events list, got %s", w.Body.String())
	}
}
