package weaviate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"projecttutor/backend/internal/vector"
)

// Store is the persistent Vector Index. Records of every document live in one
// class and queries are scoped with an exact documentId filter.
type Store struct {
	client    *weaviate.Client
	className string
}

func NewStore(client *weaviate.Client, className string) *Store {
	return &Store{client: client, className: className}
}

// ObjectID maps a composite record id to its stable Weaviate object id, so
// re-upserting a chunk overwrites the previous object.
func ObjectID(compositeID string) strfmt.UUID {
	return strfmt.UUID(uuid.NewSHA1(uuid.NameSpaceURL, []byte(compositeID)).String())
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	return vector.EnsureSchema(ctx, NewSchemaClient(s.client), s.className)
}

func (s *Store) Upsert(ctx context.Context, documentID string, chunkIDs, texts []string, embeddings [][]float32, metadatas []map[string]interface{}) error {
	vector.CheckBatch(chunkIDs, texts, embeddings, metadatas)
	vector.TagMetadata(documentID, chunkIDs, metadatas)
	if len(chunkIDs) == 0 {
		return nil
	}

	objects := make([]*models.Object, 0, len(chunkIDs))
	for i, cid := range chunkIDs {
		recordID := vector.CompositeID(documentID, cid)
		meta, err := json.Marshal(metadatas[i])
		if err != nil {
			return fmt.Errorf("encode metadata of %s: %w", recordID, err)
		}

		props := map[string]interface{}{
			vector.PropRecordID:   recordID,
			vector.PropDocumentID: documentID,
			vector.PropChunkID:    cid,
			vector.PropContent:    texts[i],
			vector.PropMetadata:   string(meta),
		}
		if v, ok := intValue(metadatas[i][vector.MetaStart]); ok {
			props[vector.PropStart] = v
		}
		if v, ok := intValue(metadatas[i][vector.MetaEnd]); ok {
			props[vector.PropEnd] = v
		}
		if f, ok := metadatas[i][vector.MetaFilename].(string); ok {
			props[vector.PropFilename] = f
		}

		objects = append(objects, &models.Object{
			Class:      s.className,
			ID:         ObjectID(recordID),
			Properties: props,
			Vector:     embeddings[i],
		})
	}

	res, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return err
	}
	for _, r := range res {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return fmt.Errorf("batch upsert of %s failed: %s", r.ID, r.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

func (s *Store) Query(ctx context.Context, embedding []float32, documentID string, nResults int) ([]vector.Hit, error) {
	hits := make([]vector.Hit, 0)
	if nResults <= 0 {
		return hits, nil
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(embedding)

	fields := []graphql.Field{
		{Name: vector.PropRecordID},
		{Name: vector.PropContent},
		{Name: vector.PropMetadata},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}

	q := s.client.GraphQL().Get().
		WithClassName(s.className).
		WithNearVector(nearVector).
		WithLimit(nResults).
		WithFields(fields...)

	if documentID != "" {
		q = q.WithWhere(filters.Where().
			WithPath([]string{vector.PropDocumentID}).
			WithOperator(filters.Equal).
			WithValueString(documentID))
	}

	res, err := q.Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", res.Errors[0].Message)
	}

	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return hits, nil
	}
	objects, ok := data[s.className].([]interface{})
	if !ok {
		return hits, nil
	}

	for _, o := range objects {
		props, ok := o.(map[string]interface{})
		if !ok {
			continue
		}
		hit := vector.Hit{Metadata: make(map[string]interface{})}
		if id, ok := props[vector.PropRecordID].(string); ok {
			hit.ID = id
		}
		if content, ok := props[vector.PropContent].(string); ok {
			hit.Document = content
		}
		if raw, ok := props[vector.PropMetadata].(string); ok && raw != "" {
			if err := json.Unmarshal([]byte(raw), &hit.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata of %s: %w", hit.ID, err)
			}
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			hit.Distance = floatValue(additional["distance"])
		}
		hits = append(hits, hit)
	}

	return hits, nil
}

func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(s.className).
		WithOutput("minimal").
		WithWhere(filters.Where().
			WithPath([]string{vector.PropDocumentID}).
			WithOperator(filters.Equal).
			WithValueString(documentID)).
		Do(ctx)
	return err
}

func (s *Store) Count(ctx context.Context) (int, error) {
	meta := graphql.Field{
		Name:   "meta",
		Fields: []graphql.Field{{Name: "count"}},
	}

	res, err := s.client.GraphQL().Aggregate().
		WithClassName(s.className).
		WithFields(meta).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("graphql error: %s", res.Errors[0].Message)
	}

	agg, ok := res.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	rows, ok := agg[s.className].([]interface{})
	if !ok || len(rows) == 0 {
		return 0, nil
	}
	row, ok := rows[0].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	m, ok := row["meta"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	return int(floatValue(m["count"])), nil
}

func intValue(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// floatValue accepts both encodings of GraphQL numbers seen across Weaviate
// versions.
func floatValue(v interface{}) float32 {
	switch n := v.(type) {
	case float64:
		return float32(n)
	case string:
		f, _ := strconv.ParseFloat(n, 32)
		return float32(f)
	}
	return 0
}
