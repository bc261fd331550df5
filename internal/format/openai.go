package format

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"transcribeme/internal/calls"
)

// OpenAIFormatter implements Formatter with the OpenAI chat API.
type OpenAIFormatter struct {
	client openai.Client
	model  openai.ChatModel
}

func NewOpenAIFormatter(apiKey string) (*OpenAIFormatter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("format: api key must not be empty")
	}
	return &OpenAIFormatter{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.ChatModelGPT3_5Turbo,
	}, nil
}

const formatSystemPrompt = "You are a professional assistant that formats transcribed voice messages. " +
	"Always maintain the original meaning while improving clarity and structure."

// stylePrompts prefix the raw transcript in the user message.
var stylePrompts = map[calls.Style]string{
	calls.StyleEmail: "Format this transcribed voice message as a professional email. " +
		"Add an appropriate subject line and structure it with proper paragraphs. " +
		"Correct any grammar issues and make it sound professional:\n\n",
	calls.StyleNotes: "Format this transcribed voice message as clear, organized notes. " +
		"Use bullet points, proper headings, and structure it for easy reading. " +
		"Correct grammar and spelling:\n\n",
	calls.StyleMeeting: "Format this transcribed voice message as meeting minutes. " +
		"Organize into sections like Discussion Points, Decisions Made, and Action Items. " +
		"Make it professional and well-structured:\n\n",
}

func (f *OpenAIFormatter) Format(ctx context.Context, raw string, style calls.Style) (string, error) {
	if style == calls.StyleRaw {
		return raw, nil
	}
	prompt, ok := stylePrompts[style]
	if !ok {
		return "", fmt.Errorf("format: unknown style %q", style)
	}

	res, err := f.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: f.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(formatSystemPrompt),
			openai.UserMessage(prompt + raw),
		},
		MaxTokens:   openai.Int(1000),
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		return "", fmt.Errorf("format: chat completion: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("format: completion returned no choices")
	}
	text := strings.TrimSpace(res.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("format: completion returned empty text")
	}
	return text, nil
}

func (f *OpenAIFormatter) Summarize(ctx context.Context, text string, maxChars int) (string, error) {
	if utf8.RuneCountInString(text) <= maxChars {
		return text, nil
	}

	sys := fmt.Sprintf("Create a brief summary of this text in %d characters or less. "+
		"Keep the key points and make it clear and concise.", maxChars)
	res, err := f.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: f.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(sys),
			openai.UserMessage(text),
		},
		MaxTokens:   openai.Int(50),
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		return "", fmt.Errorf("format: summary completion: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("format: summary returned no choices")
	}
	summary := strings.TrimSpace(res.Choices[0].Message.Content)
	if summary == "" {
		return "", fmt.Errorf("format: summary returned empty text")
	}
	if runes := []rune(summary); len(runes) > maxChars {
		summary = string(runes[:maxChars])
	}
	return summary, nil
}

var _ Formatter = (*OpenAIFormatter)(nil)
