package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"projecttutor/backend/internal/settings"
)

var ErrMissingAPIKey = errors.New("gemini api key not configured")

// keyedClient holds one genai client for the API key currently stored in
// settings and rebuilds it when the key changes.
type keyedClient struct {
	settingsSvc *settings.Service
	clientOpts  []option.ClientOption

	mu         sync.RWMutex
	client     *genai.Client
	currentKey string
}

// resolve loads the current settings and a client for their API key.
func (c *keyedClient) resolve(ctx context.Context) (*genai.Client, *settings.Settings, error) {
	s, err := c.settingsSvc.Get(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if s.GeminiAPIKey == "" {
		return nil, nil, ErrMissingAPIKey
	}

	client, err := c.getClient(ctx, s.GeminiAPIKey)
	if err != nil {
		return nil, nil, err
	}
	return client, s, nil
}

func (c *keyedClient) getClient(ctx context.Context, key string) (*genai.Client, error) {
	c.mu.RLock()
	if c.client != nil && c.currentKey == key {
		defer c.mu.RUnlock()
		return c.client, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil && c.currentKey == key {
		return c.client, nil
	}

	if c.client != nil {
		if err := c.client.Close(); err != nil {
			slog.Warn("failed to close previous genai client", "error", err)
		}
	}

	opts := append([]option.ClientOption{}, c.clientOpts...)
	opts = append(opts, option.WithAPIKey(key))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	c.client = client
	c.currentKey = key
	return client, nil
}

func (c *keyedClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	c.currentKey = ""
	return err
}
