package gemini

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"projecttutor/backend/internal/settings"
)

// DefaultLLMModel is used when settings name no generation model.
const DefaultLLMModel = "gemini-2.5-flash"

var ErrEmptyResponse = errors.New("gemini returned no text")

type Generator struct {
	keyedClient
}

func NewGenerator(svc *settings.Service, opts ...option.ClientOption) *Generator {
	return &Generator{keyedClient{settingsSvc: svc, clientOpts: opts}}
}

// Generate sends one prompt and returns the concatenated text parts of the
// first candidate.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	client, s, err := g.resolve(ctx)
	if err != nil {
		return "", err
	}

	name := s.LLMModel
	if name == "" {
		name = DefaultLLMModel
	}

	slog.DebugContext(ctx, "generating content", "model", name, "prompt_length", len(prompt))
	resp, err := client.GenerativeModel(name).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
