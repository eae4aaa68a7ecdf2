package settings

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrInvalid = errors.New("invalid settings")

// Settings are the runtime-editable provider settings, stored as a single row.
type Settings struct {
	ID           int       `json:"-"`
	GeminiAPIKey string    `json:"gemini_api_key"`
	LLMModel     string    `json:"llm_model"`
	EmbedModel   string    `json:"embed_model"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Masked hides all but the last four characters of the API key.
func (s Settings) Masked() Settings {
	if n := len(s.GeminiAPIKey); n > 0 {
		keep := min(4, n/2)
		s.GeminiAPIKey = strings.Repeat("*", n-keep) + s.GeminiAPIKey[n-keep:]
	}
	return s
}

type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, s *Settings) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context) (*Settings, error) {
	return s.repo.Get(ctx)
}

// ErrNotSeeded means the settings row is missing, i.e. migrations have not run.
var ErrNotSeeded = errors.New("settings row missing")

// Update stores new settings. An empty API key keeps the stored one, so
// clients can edit model names without resending the secret.
func (s *Service) Update(ctx context.Context, set *Settings) error {
	if strings.TrimSpace(set.LLMModel) == "" || strings.TrimSpace(set.EmbedModel) == "" {
		return errors.Join(ErrInvalid, errors.New("llm_model and embed_model are required"))
	}
	if set.GeminiAPIKey == "" {
		cur, err := s.repo.Get(ctx)
		if err != nil {
			return err
		}
		set.GeminiAPIKey = cur.GeminiAPIKey
	}
	return s.repo.Update(ctx, set)
}

// Seed fills unset fields of the stored row from defaults, usually taken from
// the environment at startup. Values already stored win.
func (s *Service) Seed(ctx context.Context, defaults Settings) error {
	cur, err := s.repo.Get(ctx)
	if err != nil {
		return err
	}

	next := *cur
	if next.GeminiAPIKey == "" {
		next.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if next.LLMModel == "" {
		next.LLMModel = defaults.LLMModel
	}
	if next.EmbedModel == "" {
		next.EmbedModel = defaults.EmbedModel
	}
	if next.GeminiAPIKey == cur.GeminiAPIKey && next.LLMModel == cur.LLMModel && next.EmbedModel == cur.EmbedModel {
		return nil
	}
	return s.repo.Update(ctx, &next)
}
