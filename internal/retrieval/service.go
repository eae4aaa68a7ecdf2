package retrieval

import (
	"context"
	"errors"
	"strings"
	"time"

	"projecttutor/backend/internal/vector"
)

// ContextSeparator joins retrieved chunk texts into one grounding context.
const ContextSeparator = "\n---\n"

// ErrNoGrounding means the document produced no hits, so nothing can be
// generated from it.
var ErrNoGrounding = errors.New("no relevant chunks found")

type Embedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

type Index interface {
	Query(ctx context.Context, embedding []float32, documentID string, nResults int) ([]vector.Hit, error)
}

// Context is the grounding assembled for one generation request. Hits keep
// the index's rank order.
type Context struct {
	Text string
	Hits []vector.Hit
}

// Chunks returns the hit texts in rank order.
func (c *Context) Chunks() []string {
	out := make([]string, len(c.Hits))
	for i, h := range c.Hits {
		out[i] = h.Document
	}
	return out
}

type Service struct {
	embedder Embedder
	index    Index
	logger   *QueryLogger
}

func NewService(e Embedder, idx Index, l *QueryLogger) *Service {
	return &Service{embedder: e, index: idx, logger: l}
}

// Retrieve embeds the query, searches the document's records only and joins
// the hits with ContextSeparator. Zero hits returns ErrNoGrounding.
func (s *Service) Retrieve(ctx context.Context, documentID, query string, nResults int) (*Context, error) {
	start := time.Now()
	var hits []vector.Hit
	var err error

	defer func() {
		if s.logger != nil {
			s.logger.Record(ctx, documentID, query, nResults, hits, err, time.Since(start))
		}
	}()

	vec, err := s.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err = s.index.Query(ctx, vec, documentID, nResults)
	if err != nil {
		return nil, err
	}

	if len(hits) == 0 {
		err = ErrNoGrounding
		return nil, err
	}

	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Document
	}
	return &Context{Text: strings.Join(texts, ContextSeparator), Hits: hits}, nil
}
