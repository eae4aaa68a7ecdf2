package app

import (
	"context"

	"projecttutor/backend/internal/vector"
)

// VectorStore is the Vector Index as the application uses it. Both the
// Weaviate store and the in-memory index satisfy it.
type VectorStore interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, documentID string, chunkIDs, texts []string, embeddings [][]float32, metadatas []map[string]interface{}) error
	Query(ctx context.Context, embedding []float32, documentID string, nResults int) ([]vector.Hit, error)
	DeleteDocument(ctx context.Context, documentID string) error
	Count(ctx context.Context) (int, error)
}

type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

type SchemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}
