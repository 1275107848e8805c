// Package ai wraps the OpenAI client for the moodboard text assistant.
package ai

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("ai suggestions disabled")

type MoodboardAssistant struct {
	client *openai.Client
}

// NewMoodboardAssistant returns a disabled assistant for an empty key.
func NewMoodboardAssistant(apiKey string) *MoodboardAssistant {
	if apiKey == "" {
		return &MoodboardAssistant{}
	}
	return &MoodboardAssistant{client: openai.NewClient(apiKey)}
}

func (a *MoodboardAssistant) Enabled() bool { return a.client != nil }

// Suggest produces a short descriptive text for a moodboard from a style
// and room hint, in French.
func (a *MoodboardAssistant) Suggest(ctx context.Context, style, room, notes string) (string, error) {
	if a.client == nil {
		return "", ErrDisabled
	}
	var prompt strings.Builder
	prompt.WriteString("Rédige un court texte d'ambiance (3 phrases max) pour un moodboard de décoration intérieure.")
	if style != "" {
		prompt.WriteString(" Style : " + style + ".")
	}
	if room != "" {
		prompt.WriteString(" Pièce : " + room + ".")
	}
	if notes != "" {
		prompt.WriteString(" Indications : " + notes + ".")
	}
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     openai.GPT4oMini,
		MaxTokens: 220,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "Tu es un assistant d'architecte d'intérieur. Réponds en français, ton sobre et évocateur."},
			{Role: openai.ChatMessageRoleUser, Content: prompt.String()},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
