package vector

import (
	"context"
	"maps"
	"math"
	"slices"
	"sync"
)

type memoryRecord struct {
	id       string
	vector   []float32
	text     string
	metadata map[string]interface{}
}

// MemoryIndex is a brute-force cosine index kept in process memory. It honours
// the same contract as the Weaviate store and backs tests and single-process
// deployments.
type MemoryIndex struct {
	mu      sync.RWMutex
	records []memoryRecord
	byID    map[string]int
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{byID: make(map[string]int)}
}

func (m *MemoryIndex) EnsureSchema(ctx context.Context) error { return nil }

func (m *MemoryIndex) Upsert(ctx context.Context, documentID string, chunkIDs, texts []string, embeddings [][]float32, metadatas []map[string]interface{}) error {
	CheckBatch(chunkIDs, texts, embeddings, metadatas)
	TagMetadata(documentID, chunkIDs, metadatas)

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, cid := range chunkIDs {
		rec := memoryRecord{
			id:       CompositeID(documentID, cid),
			vector:   slices.Clone(embeddings[i]),
			text:     texts[i],
			metadata: maps.Clone(metadatas[i]),
		}
		if idx, ok := m.byID[rec.id]; ok {
			m.records[idx] = rec
			continue
		}
		m.byID[rec.id] = len(m.records)
		m.records = append(m.records, rec)
	}
	return nil
}

func (m *MemoryIndex) Query(ctx context.Context, embedding []float32, documentID string, nResults int) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]Hit, 0)
	if nResults <= 0 {
		return hits, nil
	}

	for _, r := range m.records {
		if documentID != "" && r.metadata[MetaDocumentID] != documentID {
			continue
		}
		hits = append(hits, Hit{
			ID:       r.id,
			Document: r.text,
			Metadata: maps.Clone(r.metadata),
			Distance: 1 - cosine(embedding, r.vector),
		})
	}

	slices.SortStableFunc(hits, func(a, b Hit) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return 0
	})

	if len(hits) > nResults {
		hits = hits[:nResults]
	}
	return hits, nil
}

func (m *MemoryIndex) DeleteDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	m.byID = make(map[string]int, len(m.records))
	for _, r := range m.records {
		if r.metadata[MetaDocumentID] == documentID {
			continue
		}
		m.byID[r.id] = len(kept)
		kept = append(kept, r)
	}
	m.records = kept
	return nil
}

func (m *MemoryIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

func cosine(a, b []float32) float32 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
