package document

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"projecttutor/backend/internal/config"
	"projecttutor/backend/internal/middleware"
	"projecttutor/backend/internal/text"
	"projecttutor/backend/internal/vector"
	"projecttutor/backend/internal/worker"
)

type PageExtractor interface {
	ExtractPages(path string) ([]string, error)
}

type Embedder interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

type Index interface {
	Upsert(ctx context.Context, documentID string, chunkIDs, texts []string, embeddings [][]float32, metadatas []map[string]interface{}) error
	DeleteDocument(ctx context.Context, documentID string) error
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

// FailureRecorder keeps index tasks that could not be queued so they can be
// retried by hand.
type FailureRecorder interface {
	Record(ctx context.Context, documentID, handler string, payload []byte, cause error) error
}

type ChunkOptions struct {
	Size    int
	Overlap int
}

type Service struct {
	repo      Repository
	extractor PageExtractor
	embedder  Embedder
	index     Index
	pub       EventPublisher
	failures  FailureRecorder
	chunking  ChunkOptions
}

func NewService(repo Repository, ext PageExtractor, emb Embedder, idx Index, pub EventPublisher, failures FailureRecorder, chunking ChunkOptions) *Service {
	return &Service{
		repo:      repo,
		extractor: ext,
		embedder:  emb,
		index:     idx,
		pub:       pub,
		failures:  failures,
		chunking:  chunking,
	}
}

// Ingest extracts, chunks, embeds and indexes a PDF, then records the
// document. An embedding or index failure does not fail the upload: the
// document is stored with Indexed=false and an index task is queued.
func (s *Service) Ingest(ctx context.Context, filename, path string) (*Document, error) {
	pages, err := s.extractor.ExtractPages(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if allBlank(pages) {
		return nil, ErrNoText
	}

	chunks := text.ChunkPages(pages, s.chunking.Size, s.chunking.Overlap)
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}

	doc := &Document{
		ID:         uuid.New().String(),
		Filename:   filename,
		PagesCount: len(pages),
		ChunkCount: len(chunks),
		Chunks:     chunks,
		Artifacts:  NewArtifacts(),
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.indexChunks(ctx, doc); err != nil {
		slog.WarnContext(ctx, "indexing failed, storing document unindexed", "doc_id", doc.ID, "error", err)
	} else {
		doc.Indexed = true
	}

	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}

	if !doc.Indexed {
		s.queueIndex(ctx, doc.ID)
	}

	slog.InfoContext(ctx, "document ingested", "doc_id", doc.ID, "filename", filename, "pages", doc.PagesCount, "chunks", len(chunks), "indexed", doc.Indexed)
	return doc, nil
}

// Reindex re-embeds the stored chunks of a document and marks it indexed.
func (s *Service) Reindex(ctx context.Context, id string) error {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.indexChunks(ctx, doc); err != nil {
		return err
	}
	return s.repo.SetIndexed(ctx, id, true)
}

// RequestReindex queues an index task for an existing document.
func (s *Service) RequestReindex(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.publishIndex(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Document, error) {
	return s.repo.List(ctx)
}

// Delete removes the vector records first, so a failed delete never leaves
// records without a document to scope them.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.index.DeleteDocument(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) indexChunks(ctx context.Context, doc *Document) error {
	ids := make([]string, len(doc.Chunks))
	texts := make([]string, len(doc.Chunks))
	metas := make([]map[string]interface{}, len(doc.Chunks))
	for i, c := range doc.Chunks {
		ids[i] = c.ID
		texts[i] = c.Text
		metas[i] = map[string]interface{}{
			vector.MetaFilename: doc.Filename,
			vector.MetaStart:    c.Start,
			vector.MetaEnd:      c.End,
		}
	}

	vecs, err := s.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if err := s.index.Upsert(ctx, doc.ID, ids, texts, vecs, metas); err != nil {
		return fmt.Errorf("upsert chunks: %w", err)
	}
	return nil
}

// queueIndex publishes an index task and falls back to a failed-job record
// when the queue is unavailable.
func (s *Service) queueIndex(ctx context.Context, id string) {
	err := s.publishIndex(ctx, id)
	if err == nil {
		return
	}
	slog.ErrorContext(ctx, "failed to queue index task", "doc_id", id, "error", err)
	if s.failures == nil {
		return
	}
	payload, _ := json.Marshal(worker.IndexTask{DocumentID: id})
	if rerr := s.failures.Record(ctx, id, worker.HandlerIndex, payload, err); rerr != nil {
		slog.ErrorContext(ctx, "failed to record failed index job", "doc_id", id, "error", rerr)
	}
}

func (s *Service) publishIndex(ctx context.Context, id string) error {
	if s.pub == nil {
		return worker.ErrNoPublisher
	}
	payload, err := json.Marshal(worker.IndexTask{
		DocumentID:    id,
		CorrelationID: middleware.GetCorrelationID(ctx),
	})
	if err != nil {
		return err
	}
	if err := s.pub.Publish(config.TopicDocumentIndex, payload); err != nil {
		return err
	}
	slog.InfoContext(ctx, "published index task", "doc_id", id)
	return nil
}

func allBlank(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}
