package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, doc *Document) error {
	chunks, err := json.Marshal(doc.Chunks)
	if err != nil {
		return fmt.Errorf("encode chunks: %w", err)
	}
	artifacts, err := json.Marshal(doc.Artifacts)
	if err != nil {
		return fmt.Errorf("encode artifacts: %w", err)
	}
	query := `INSERT INTO documents (id, filename, pages_count, indexed, chunk_count, chunks, artifacts, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.db.ExecContext(ctx, query, doc.ID, doc.Filename, doc.PagesCount, doc.Indexed, doc.ChunkCount, chunks, artifacts, doc.CreatedAt)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Document, error) {
	d := &Document{}
	var chunks, artifacts []byte
	query := `SELECT id, filename, pages_count, indexed, chunk_count, chunks, artifacts, created_at FROM documents WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&d.ID, &d.Filename, &d.PagesCount, &d.Indexed, &d.ChunkCount, &chunks, &artifacts, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(chunks, &d.Chunks); err != nil {
		return nil, fmt.Errorf("decode chunks of %s: %w", id, err)
	}
	if err := json.Unmarshal(artifacts, &d.Artifacts); err != nil {
		return nil, fmt.Errorf("decode artifacts of %s: %w", id, err)
	}
	d.Artifacts.EnsureMaps()
	return d, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Document, error) {
	query := `SELECT id, filename, pages_count, indexed, chunk_count, created_at FROM documents ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Filename, &d.PagesCount, &d.Indexed, &d.ChunkCount, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *PostgresRepo) SetIndexed(ctx context.Context, id string, indexed bool) error {
	query := `UPDATE documents SET indexed = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, indexed, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *PostgresRepo) SetArtifact(ctx context.Context, id string, path []string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode artifact %v: %w", path, err)
	}
	query := `UPDATE documents SET artifacts = jsonb_set(artifacts, $2::text[], $3::jsonb, true) WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, pq.Array(path), string(raw))
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM documents`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
