package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"projecttutor/backend/internal/settings"
)

type stubRepo struct {
	s *settings.Settings
}

func (r *stubRepo) Get(ctx context.Context) (*settings.Settings, error) { return r.s, nil }

func (r *stubRepo) Update(ctx context.Context, s *settings.Settings) error {
	r.s = s
	return nil
}

func TestKeyedClient_RebuildsOnKeyChange(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embedding": {"values": [1]}}`))
	}))
	defer ts.Close()

	repo := &stubRepo{s: &settings.Settings{GeminiAPIKey: "key-a"}}
	e := NewEmbedder(settings.NewService(repo), option.WithEndpoint(ts.URL))
	defer e.Close()
	ctx := context.Background()

	_, err := e.Embed(ctx, "x")
	require.NoError(t, err)
	first := e.client

	_, err = e.Embed(ctx, "y")
	require.NoError(t, err)
	assert.Same(t, first, e.client, "same key reuses the client")

	repo.s = &settings.Settings{GeminiAPIKey: "key-b"}
	_, err = e.Embed(ctx, "z")
	require.NoError(t, err)
	assert.NotSame(t, first, e.client)
	assert.Equal(t, "key-b", e.currentKey)
}
