package settings_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projecttutor/backend/internal/settings"
)

const (
	selectSettings = "SELECT id, gemini_api_key, llm_model, embed_model, updated_at FROM settings WHERE id = $1"
	updateSettings = "UPDATE settings SET gemini_api_key = $1, llm_model = $2, embed_model = $3, updated_at = NOW() WHERE id = $4 RETURNING id, updated_at"
)

func TestPostgresRepo_Get(t *testing.T) {
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		rows    *sqlmock.Rows
		err     error
		wantErr error
	}{
		{
			name: "Success",
			rows: sqlmock.NewRows([]string{"id", "gemini_api_key", "llm_model", "embed_model", "updated_at"}).
				AddRow(1, "key", "gemini-2.5-flash", "text-embedding-004", updated),
		},
		{name: "Missing Row", err: sql.ErrNoRows, wantErr: settings.ErrNotSeeded},
		{name: "Driver Error", err: sqlmock.ErrCancelled, wantErr: sqlmock.ErrCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			q := mock.ExpectQuery(regexp.QuoteMeta(selectSettings)).WithArgs(1)
			if tt.rows != nil {
				q.WillReturnRows(tt.rows)
			} else {
				q.WillReturnError(tt.err)
			}

			s, err := settings.NewPostgresRepo(db).Get(context.Background())
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, s)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "key", s.GeminiAPIKey)
				assert.Equal(t, "text-embedding-004", s.EmbedModel)
				assert.Equal(t, updated, s.UpdatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresRepo_Update(t *testing.T) {
	t.Run("Sets UpdatedAt", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		now := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
		s := &settings.Settings{GeminiAPIKey: "k2", LLMModel: "gemini-2.5-pro", EmbedModel: "text-embedding-004"}

		mock.ExpectQuery(regexp.QuoteMeta(updateSettings)).
			WithArgs("k2", "gemini-2.5-pro", "text-embedding-004", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "updated_at"}).AddRow(1, now))

		require.NoError(t, settings.NewPostgresRepo(db).Update(context.Background(), s))
		assert.Equal(t, 1, s.ID)
		assert.Equal(t, now, s.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing Row", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(updateSettings)).WillReturnError(sql.ErrNoRows)

		err = settings.NewPostgresRepo(db).Update(context.Background(), &settings.Settings{LLMModel: "m", EmbedModel: "e"})
		assert.ErrorIs(t, err, settings.ErrNotSeeded)
	})
}
