package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"transcribeme/internal/calls"
	"transcribeme/internal/format"
	"transcribeme/internal/transcripts"
)

// Start launches the worker pool. Workers drain the queue until ctx is
// cancelled; Wait blocks until they have all exited.
func (p *Pipeline) Start(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.cfg.Workers; i++ {
		g.Go(func() error {
			p.worker(gctx)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(p.done)
	}()
}

// Wait blocks until all workers have stopped.
func (p *Pipeline) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case callID := <-p.queue:
			p.run(ctx, callID)
		}
	}
}

// run supervises one call's processing: a panic fails that call and is not
// allowed to take the worker (or any other call) down with it.
func (p *Pipeline) run(ctx context.Context, callID string) {
	defer func() {
		if r := recover(); r != nil {
			p.failCall(ctx, callID, fmt.Sprintf("panic during processing: %v", r))
		}
	}()
	p.process(ctx, callID)
}

// process drives a call from transcribing to a terminal state. Every external
// gateway call is timeout-bounded and any failure lands the record in the
// failed state with a reason, with one exception: a formatting failure falls
// back to publishing the raw transcript (losing formatting is better than
// losing the message).
func (p *Pipeline) process(ctx context.Context, callID string) {
	rec, err := p.store.Get(ctx, callID)
	if err != nil {
		p.log.Error("call lookup failed", "call_id", callID, "err", err)
		return
	}
	if rec.State != calls.StateTranscribing {
		p.log.Info("skipping call not awaiting transcription", "call_id", callID, "state", rec.State)
		return
	}

	raw, err := p.transcribe(ctx, rec.RecordingURL)
	if err != nil {
		p.failCall(ctx, callID, fmt.Sprintf("transcription failed: %v", err))
		return
	}
	rec, err = p.store.Update(ctx, callID, func(r *calls.Record) error {
		r.RawTranscript = raw
		return r.Advance(calls.StateFormatting)
	})
	if err != nil {
		p.failCall(ctx, callID, fmt.Sprintf("store update failed: %v", err))
		return
	}
	p.logTrail(p.trail.LogStateChange(ctx, callID, calls.StateTranscribing, calls.StateFormatting))

	formatted := p.formatTranscript(ctx, rec)
	rec, err = p.store.Update(ctx, callID, func(r *calls.Record) error {
		r.FormattedTranscript = formatted
		return nil
	})
	if err != nil {
		p.failCall(ctx, callID, fmt.Sprintf("store update failed: %v", err))
		return
	}

	entry, err := p.publish(ctx, rec)
	if err != nil {
		p.failCall(ctx, callID, fmt.Sprintf("transcript publish failed: %v", err))
		return
	}
	rec, err = p.store.Update(ctx, callID, func(r *calls.Record) error {
		r.TranscriptID = entry.ID
		r.ExpiresAt = &entry.ExpiresAt
		return nil
	})
	if err != nil {
		p.failCall(ctx, callID, fmt.Sprintf("store update failed: %v", err))
		return
	}

	if err := p.sendNotification(ctx, rec, entry); err != nil {
		p.failCall(ctx, callID, fmt.Sprintf("sms delivery failed: %v", err))
		return
	}
	p.logTrail(p.trail.LogNotification(ctx, callID, "sms sent"))

	if _, err := p.store.Update(ctx, callID, func(r *calls.Record) error {
		r.SMSSent = true
		return r.Advance(calls.StateCompleted)
	}); err != nil {
		p.failCall(ctx, callID, fmt.Sprintf("store update failed: %v", err))
		return
	}
	p.log.Info("call completed", "call_id", callID, "transcript_id", entry.ID)
	p.logTrail(p.trail.LogStateChange(ctx, callID, calls.StateFormatting, calls.StateCompleted))
}

func (p *Pipeline) transcribe(ctx context.Context, recordingURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.GatewayTimeout)
	defer cancel()
	return p.stt.Transcribe(ctx, recordingURL)
}

func (p *Pipeline) formatTranscript(ctx context.Context, rec calls.Record) string {
	if rec.Style == calls.StyleRaw {
		return rec.RawTranscript
	}
	fctx, cancel := context.WithTimeout(ctx, p.cfg.GatewayTimeout)
	defer cancel()
	formatted, err := p.fmtr.Format(fctx, rec.RawTranscript, rec.Style)
	if err != nil {
		p.log.Warn("formatting failed, falling back to raw transcript",
			"call_id", rec.CallID, "style", rec.Style, "err", err)
		return rec.RawTranscript
	}
	return formatted
}

// publish inserts the transcript entry. This runs at most once per call: the
// state machine only reaches it on the single formatting pass, and the fresh
// uuid makes an id collision an invariant violation rather than a retry path.
func (p *Pipeline) publish(ctx context.Context, rec calls.Record) (transcripts.Entry, error) {
	now := p.clock().UTC()
	entry := transcripts.Entry{
		ID:        p.newID(),
		Content:   rec.FormattedTranscript,
		Style:     rec.Style,
		CreatedAt: now,
		ExpiresAt: now.Add(p.cfg.Retention),
	}
	if err := p.library.Put(ctx, entry); err != nil {
		return transcripts.Entry{}, err
	}
	return entry, nil
}

func (p *Pipeline) sendNotification(ctx context.Context, rec calls.Record, entry transcripts.Entry) error {
	summary := p.summarize(ctx, entry.Content)
	body := smsBody(summary, p.cfg.BaseURL+"/transcript/"+entry.ID, entry.ExpiresAt)

	nctx, cancel := context.WithTimeout(ctx, p.cfg.GatewayTimeout)
	defer cancel()
	return p.notify.SendSMS(nctx, rec.From, body)
}

func (p *Pipeline) summarize(ctx context.Context, text string) string {
	sctx, cancel := context.WithTimeout(ctx, p.cfg.GatewayTimeout)
	defer cancel()
	summary, err := p.fmtr.Summarize(sctx, text, p.cfg.SummaryMaxChars)
	if err != nil {
		p.log.Warn("summary generation failed, truncating", "err", err)
		return format.Truncate(text, p.cfg.SummaryMaxChars)
	}
	return summary
}

// smsBody lays out the notification message in blank-line separated sections.
func smsBody(summary, transcriptURL string, expiresAt time.Time) string {
	return "Your transcript is ready!\n\n" +
		"Preview: " + summary + "\n\n" +
		"Full transcript: " + transcriptURL + "\n\n" +
		"Expires: " + expiresAt.Format("2006-01-02")
}
