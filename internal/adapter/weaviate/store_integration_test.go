package weaviate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projecttutor/backend/internal/adapter/weaviate"
	"projecttutor/backend/internal/testutils"
	"projecttutor/backend/internal/vector"
)

func TestWeaviateStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	store := weaviate.NewStore(s.Weaviate, "StudyChunk")
	ctx := context.Background()

	require.NoError(t, store.EnsureSchema(ctx))
	// second call sees the existing cosine class
	require.NoError(t, store.EnsureSchema(ctx))

	err := store.Upsert(ctx, "doc-a",
		[]string{"0", "1"},
		[]string{"photosynthesis in leaves", "the krebs cycle"},
		[][]float32{{0, 1, 0}, {0.1, 0.9, 0}},
		[]map[string]interface{}{{vector.MetaStart: 0, vector.MetaEnd: 24}, nil})
	require.NoError(t, err)

	err = store.Upsert(ctx, "doc-b",
		[]string{"0"},
		[]string{"exactly the query"},
		[][]float32{{1, 0, 0}},
		[]map[string]interface{}{nil})
	require.NoError(t, err)

	hits, err := store.Query(ctx, []float32{1, 0, 0}, "doc-a", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.Equal(t, "doc-a", h.Metadata[vector.MetaDocumentID])
	}
	assert.Equal(t, "doc-a__1", hits[0].ID)

	// re-upsert overwrites by composite id
	err = store.Upsert(ctx, "doc-a", []string{"0"}, []string{"photosynthesis revised"}, [][]float32{{0, 1, 0}}, []map[string]interface{}{nil})
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, store.DeleteDocument(ctx, "doc-a"))
	hits, err = store.Query(ctx, []float32{1, 0, 0}, "doc-a", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
