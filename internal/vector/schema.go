package vector

import (
	"context"
	"errors"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// DistanceCosine is the only similarity metric the index is created with.
const DistanceCosine = "cosine"

var ErrDistanceMismatch = errors.New("vector class distance metric mismatch")

// SchemaClient defines the interface for Weaviate schema operations
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
}

// Property names of the chunk class.
const (
	PropRecordID   = "recordId"
	PropDocumentID = "documentId"
	PropChunkID    = "chunkId"
	PropContent    = "content"
	PropStart      = "startOffset"
	PropEnd        = "endOffset"
	PropFilename   = "filename"
	PropMetadata   = "metadataJson"
)

func chunkProperties() []*models.Property {
	return []*models.Property{
		{
			Name:     PropRecordID,
			DataType: []string{"string"}, // <document_id>__<chunk_id>
		},
		{
			Name:     PropDocumentID,
			DataType: []string{"string"}, // exact match filter
		},
		{
			Name:     PropChunkID,
			DataType: []string{"string"},
		},
		{
			Name:     PropContent,
			DataType: []string{"text"},
		},
		{
			Name:     PropStart,
			DataType: []string{"int"},
		},
		{
			Name:     PropEnd,
			DataType: []string{"int"},
		},
		{
			Name:     PropFilename,
			DataType: []string{"text"},
		},
		{
			Name:     PropMetadata,
			DataType: []string{"text"},
		},
	}
}

// EnsureSchema gets or creates the chunk class. An existing class must use
// cosine distance; anything else returns ErrDistanceMismatch, which callers
// treat as a fatal configuration error.
func EnsureSchema(ctx context.Context, client SchemaClient, className string) error {
	exists, err := client.ClassExists(ctx, className)
	if err != nil {
		return err
	}

	properties := chunkProperties()

	if !exists {
		class := &models.Class{
			Class:       className,
			Description: "A chunk of an uploaded study document",
			Vectorizer:  "none",
			VectorIndexConfig: map[string]interface{}{
				"distance": DistanceCosine,
			},
			Properties: properties,
		}
		return client.CreateClass(ctx, class)
	}

	class, err := client.GetClass(ctx, className)
	if err != nil {
		return err
	}

	if d := classDistance(class); d != DistanceCosine {
		return fmt.Errorf("%w: class %s uses %q, want %q", ErrDistanceMismatch, className, d, DistanceCosine)
	}

	existingProps := make(map[string]bool)
	for _, p := range class.Properties {
		existingProps[p.Name] = true
	}

	for _, p := range properties {
		if !existingProps[p.Name] {
			if err := client.AddProperty(ctx, className, p); err != nil {
				return err
			}
		}
	}

	return nil
}

// classDistance reads the configured metric; Weaviate defaults to cosine when
// none is set.
func classDistance(class *models.Class) string {
	if class == nil {
		return DistanceCosine
	}
	cfg, ok := class.VectorIndexConfig.(map[string]interface{})
	if !ok {
		return DistanceCosine
	}
	d, ok := cfg["distance"].(string)
	if !ok || d == "" {
		return DistanceCosine
	}
	return d
}
