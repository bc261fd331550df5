package format

import (
	"context"
	"testing"
	"unicode/utf8"

	"transcribeme/internal/calls"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		maxChars int
		want     string
	}{
		{"within bound", "short note", 160, "short note"},
		{"exactly bound", "abcde", 5, "abcde"},
		{"over bound", "abcdefgh", 5, "abcde..."},
		{"zero bound passes through", "anything", 0, "anything"},
		{"macrons within bound", "pānui", 5, "pānui"},
		{"macrons cut at rune boundary", "pānui whakarongo", 2, "pā..."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Truncate(tc.text, tc.maxChars)
			if got != tc.want {
				t.Fatalf("Truncate(%q, %d) = %q, want %q", tc.text, tc.maxChars, got, tc.want)
			}
			if !utf8.ValidString(got) {
				t.Fatalf("Truncate(%q, %d) produced invalid UTF-8: %q", tc.text, tc.maxChars, got)
			}
		})
	}
}

func TestNewOpenAIFormatter_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIFormatter(""); err == nil {
		t.Fatalf("expected error for empty api key")
	}
}

func TestFormat_RawStyleSkipsAPI(t *testing.T) {
	f, err := NewOpenAIFormatter("sk-test")
	if err != nil {
		t.Fatalf("NewOpenAIFormatter: %v", err)
	}
	got, err := f.Format(context.Background(), "as dictated", calls.StyleRaw)
	if err != nil {
		t.Fatalf("Format raw: %v", err)
	}
	if got != "as dictated" {
		t.Fatalf("raw style should pass text through, got %q", got)
	}
}

func TestFormat_UnknownStyleFails(t *testing.T) {
	f, err := NewOpenAIFormatter("sk-test")
	if err != nil {
		t.Fatalf("NewOpenAIFormatter: %v", err)
	}
	if _, err := f.Format(context.Background(), "text", calls.Style("poem")); err == nil {
		t.Fatalf("expected error for unknown style")
	}
}

func TestSummarize_ShortTextSkipsAPI(t *testing.T) {
	f, err := NewOpenAIFormatter("sk-test")
	if err != nil {
		t.Fatalf("NewOpenAIFormatter: %v", err)
	}
	got, err := f.Summarize(context.Background(), "brief", 160)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "brief" {
		t.Fatalf("short text should pass through, got %q", got)
	}

	// The bound counts characters: five characters in six bytes still skips
	// the gateway.
	got, err = f.Summarize(context.Background(), "pānui", 5)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "pānui" {
		t.Fatalf("short multi-byte text should pass through, got %q", got)
	}
}

func TestStylePrompts_CoverFormattedStyles(t *testing.T) {
	for _, s := range []calls.Style{calls.StyleEmail, calls.StyleNotes, calls.StyleMeeting} {
		if _, ok := stylePrompts[s]; !ok {
			t.Fatalf("missing prompt for style %q", s)
		}
	}
	if _, ok := stylePrompts[calls.StyleRaw]; ok {
		t.Fatalf("raw style must not have a prompt")
	}
}
