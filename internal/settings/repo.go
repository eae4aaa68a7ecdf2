package settings

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo keeps the single settings row (id = 1) seeded by migrations.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const settingsRow = 1

func (r *PostgresRepo) Get(ctx context.Context) (*Settings, error) {
	var s Settings
	err := r.db.QueryRowContext(ctx,
		`SELECT id, gemini_api_key, llm_model, embed_model, updated_at FROM settings WHERE id = $1`, settingsRow,
	).Scan(&s.ID, &s.GeminiAPIKey, &s.LLMModel, &s.EmbedModel, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotSeeded
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Update overwrites the row and sets s.UpdatedAt from the database clock.
func (r *PostgresRepo) Update(ctx context.Context, s *Settings) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE settings SET gemini_api_key = $1, llm_model = $2, embed_model = $3, updated_at = NOW() WHERE id = $4 RETURNING id, updated_at`,
		s.GeminiAPIKey, s.LLMModel, s.EmbedModel, settingsRow,
	).Scan(&s.ID, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotSeeded
	}
	return err
}
