package ollama

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// keepAlive holds the model in memory between the many sequential calls of
// an ingest.
var keepAlive = &api.Duration{Duration: 30 * time.Minute}

// Client talks to a local Ollama server for embeddings and generation.
type Client struct {
	cli        *api.Client
	model      string
	embedModel string
}

func NewClient(host, model, embedModel string, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(host, "/"))
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cli: api.NewClient(base, httpClient), model: model, embedModel: embedModel}, nil
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.cli.Embeddings(ctx, &api.EmbeddingRequest{
		Model:     c.embedModel,
		Prompt:    text,
		KeepAlive: keepAlive,
	})
	if err != nil {
		return nil, err
	}

	emb := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		emb[i] = float32(v)
	}
	return emb, nil
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	var sb strings.Builder
	err := c.cli.Generate(ctx, &api.GenerateRequest{
		Model:     c.model,
		Prompt:    prompt,
		Stream:    &stream,
		KeepAlive: keepAlive,
	}, func(r api.GenerateResponse) error {
		sb.WriteString(r.Response)
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
