package gemini

import (
	"context"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"projecttutor/backend/internal/embedding"
	"projecttutor/backend/internal/settings"
)

// DefaultEmbedModel is used when settings name no embedding model.
const DefaultEmbedModel = "text-embedding-004"

// Embedder embeds text with the API key and model stored in settings, so both
// can change without a restart.
type Embedder struct {
	keyedClient
}

func NewEmbedder(svc *settings.Service, opts ...option.ClientOption) *Embedder {
	return &Embedder{keyedClient{settingsSvc: svc, clientOpts: opts}}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	client, s, err := e.resolve(ctx)
	if err != nil {
		return nil, err
	}

	model := s.EmbedModel
	if model == "" {
		model = DefaultEmbedModel
	}

	slog.DebugContext(ctx, "embedding content", "model", model, "length", len(text))
	res, err := client.EmbeddingModel(model).EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, embedding.ErrEmptyEmbedding
	}
	return res.Embedding.Values, nil
}
