// Package speech converts call recordings to text.
package speech

import "context"

// Transcriber is the speech-to-text gateway contract. Implementations must
// return a non-empty transcript or an error; an empty transcript is treated
// as a gateway failure by the caller.
type Transcriber interface {
	Transcribe(ctx context.Context, recordingURL string) (string, error)
}

// RecordingFetcher retrieves raw call audio given its locator.
type RecordingFetcher interface {
	FetchRecording(ctx context.Context, recordingURL string) ([]byte, error)
}
