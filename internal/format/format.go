// Package format reshapes raw transcripts for readability and produces the
// short summaries that go into notification messages.
package format

import (
	"context"

	"transcribeme/internal/calls"
)

// Formatter is the text-formatting gateway contract.
//
// Format rewrites raw text in the requested style. Summarize produces a
// digest of at most maxChars characters. Both return errors rather than
// partial output; callers decide the fallback.
type Formatter interface {
	Format(ctx context.Context, raw string, style calls.Style) (string, error)
	Summarize(ctx context.Context, text string, maxChars int) (string, error)
}

// Truncate is the summary fallback: text within the bound passes through,
// anything longer is cut at the bound with an ellipsis marker. The bound
// counts characters, not bytes, so a cut never splits a rune.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars]) + "..."
}
