package speech

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAITranscriber implements Transcriber with the OpenAI Whisper API.
type OpenAITranscriber struct {
	client  openai.Client
	fetcher RecordingFetcher
	model   openai.AudioModel
}

func NewOpenAITranscriber(apiKey string, fetcher RecordingFetcher) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("speech: api key must not be empty")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("speech: recording fetcher is required")
	}
	return &OpenAITranscriber{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		fetcher: fetcher,
		model:   openai.AudioModelWhisper1,
	}, nil
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, recordingURL string) (string, error) {
	audio, err := t.fetcher.FetchRecording(ctx, recordingURL)
	if err != nil {
		return "", fmt.Errorf("speech: fetch audio: %w", err)
	}

	res, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: t.model,
		File:  openai.File(bytes.NewReader(audio), "recording.mp3", "audio/mpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("speech: whisper transcription: %w", err)
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		return "", fmt.Errorf("speech: transcription returned empty text")
	}
	return text, nil
}

var _ Transcriber = (*OpenAITranscriber)(nil)
