package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"projecttutor/backend/features/document"
	"projecttutor/backend/internal/generation"
	"projecttutor/backend/internal/prompts"
	"projecttutor/backend/internal/retrieval"
)

// ErrUpstream wraps embedding, index and generation provider failures.
var ErrUpstream = errors.New("upstream provider failed")

type Documents interface {
	Get(ctx context.Context, id string) (*document.Document, error)
	SetArtifact(ctx context.Context, id string, path []string, value any) error
}

type Retriever interface {
	Retrieve(ctx context.Context, documentID, query string, nResults int) (*retrieval.Context, error)
}

type Service struct {
	docs      Documents
	retriever Retriever
	gen       generation.Generator
	now       func() time.Time
}

func NewService(docs Documents, r Retriever, gen generation.Generator) *Service {
	return &Service{docs: docs, retriever: r, gen: gen, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Summary(ctx context.Context, req GenerateRequest) (string, error) {
	doc, grounding, raw, err := s.generate(ctx, req.DocID, retrieval.TaskSummary, prompts.Summary, func(doc *document.Document) prompts.Params {
		return prompts.Params{PagesCount: doc.PagesCount}
	})
	if err != nil {
		return "", err
	}

	summary := generation.Summary(raw, grounding.Chunks())
	if err := s.docs.SetArtifact(ctx, doc.ID, []string{document.FieldSummary}, summary); err != nil {
		return "", err
	}
	return summary, nil
}

func (s *Service) Notes(ctx context.Context, req GenerateRequest) (generation.Notes, error) {
	doc, grounding, raw, err := s.generate(ctx, req.DocID, retrieval.TaskNotes, prompts.Notes, func(doc *document.Document) prompts.Params {
		return prompts.Params{PagesCount: doc.PagesCount}
	})
	if err != nil {
		return generation.Notes{}, err
	}

	notes := generation.NotesFrom(raw, grounding.Chunks())
	if notes.Keywords == nil {
		notes.Keywords = []string{}
	}
	if err := s.docs.SetArtifact(ctx, doc.ID, []string{document.FieldNotes}, notes); err != nil {
		return generation.Notes{}, err
	}
	if err := s.docs.SetArtifact(ctx, doc.ID, []string{document.FieldKeywords}, notes.Keywords); err != nil {
		return generation.Notes{}, err
	}
	return notes, nil
}

// MCQ generates and stores the question set of one difficulty, replacing any
// previous set of that difficulty.
func (s *Service) MCQ(ctx context.Context, req GenerateRequest) ([]generation.MCQItem, error) {
	doc, _, raw, err := s.generate(ctx, req.DocID, retrieval.TaskMCQ, prompts.MCQ, quizParams(req))
	if err != nil {
		return nil, err
	}

	items := generation.MCQ(raw, req.Difficulty, req.Num)
	if err := s.docs.SetArtifact(ctx, doc.ID, []string{document.FieldMCQ, req.Difficulty}, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) Fillups(ctx context.Context, req GenerateRequest) ([]generation.FillupItem, error) {
	doc, _, raw, err := s.generate(ctx, req.DocID, retrieval.TaskFillups, prompts.Fillups, quizParams(req))
	if err != nil {
		return nil, err
	}

	items := generation.Fillups(raw, req.Difficulty, req.Num)
	if err := s.docs.SetArtifact(ctx, doc.ID, []string{document.FieldFillups, req.Difficulty}, items); err != nil {
		return nil, err
	}
	return items, nil
}

// SaveMCQProgress grades the submitted batch and stores the whole set back.
// The last-updated timestamp records the first save only.
func (s *Service) SaveMCQProgress(ctx context.Context, req ProgressRequest) error {
	doc, err := s.docs.Get(ctx, req.DocID)
	if err != nil {
		return err
	}
	items := doc.Artifacts.MCQ[req.Difficulty]
	if len(items) == 0 {
		return ErrNoItems
	}

	generation.ScoreMCQ(items, req.BatchIDs, req.Answers)
	if err := s.docs.SetArtifact(ctx, doc.ID, []string{document.FieldMCQ, req.Difficulty}, items); err != nil {
		return err
	}
	if doc.Artifacts.MCQLastUpdated == nil {
		return s.docs.SetArtifact(ctx, doc.ID, []string{document.FieldMCQLastUpdated}, s.now())
	}
	return nil
}

func (s *Service) SaveFillupsProgress(ctx context.Context, req ProgressRequest) error {
	doc, err := s.docs.Get(ctx, req.DocID)
	if err != nil {
		return err
	}
	items := doc.Artifacts.Fillups[req.Difficulty]
	if len(items) == 0 {
		return ErrNoItems
	}

	generation.ScoreFillups(items, req.BatchIDs, req.Answers)
	if err := s.docs.SetArtifact(ctx, doc.ID, []string{document.FieldFillups, req.Difficulty}, items); err != nil {
		return err
	}
	if doc.Artifacts.FillupsLastUpdated == nil {
		return s.docs.SetArtifact(ctx, doc.ID, []string{document.FieldFillupsLastUpdated}, s.now())
	}
	return nil
}

// Chat answers a question from the document. An unindexed document, or one
// with nothing relevant, gets generation.NoAnswer without calling the model.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (string, error) {
	doc, err := s.docs.Get(ctx, req.DocID)
	if err != nil {
		return "", err
	}

	// records of an unindexed document may be partial
	if !doc.Indexed {
		return generation.NoAnswer, nil
	}

	grounding, err := s.retriever.Retrieve(ctx, doc.ID, req.Question, retrieval.TopK(retrieval.TaskChat, doc.PagesCount))
	if errors.Is(err, retrieval.ErrNoGrounding) {
		return generation.NoAnswer, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	prompt, err := prompts.Render(prompts.Chat, prompts.Params{Context: grounding.Text, Question: req.Question})
	if err != nil {
		return "", err
	}
	answer, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return answer, nil
}

// generate runs the shared retrieve, render and generate steps of a task.
func (s *Service) generate(ctx context.Context, docID string, task retrieval.Task, name prompts.Name, params func(*document.Document) prompts.Params) (*document.Document, *retrieval.Context, string, error) {
	doc, err := s.docs.Get(ctx, docID)
	if err != nil {
		return nil, nil, "", err
	}

	if !doc.Indexed {
		slog.WarnContext(ctx, "document not indexed, skipping retrieval", "doc_id", doc.ID, "task", task)
		return nil, nil, "", retrieval.ErrNoGrounding
	}

	grounding, err := s.retriever.Retrieve(ctx, doc.ID, retrieval.Query(task, doc.Filename), retrieval.TopK(task, doc.PagesCount))
	if err != nil {
		if errors.Is(err, retrieval.ErrNoGrounding) {
			return nil, nil, "", err
		}
		return nil, nil, "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	p := params(doc)
	p.Context = grounding.Text
	prompt, err := prompts.Render(name, p)
	if err != nil {
		return nil, nil, "", err
	}

	raw, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, nil, "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	slog.InfoContext(ctx, "generated artifact", "doc_id", doc.ID, "task", task, "hits", len(grounding.Hits))
	return doc, grounding, raw, nil
}

func quizParams(req GenerateRequest) func(*document.Document) prompts.Params {
	return func(*document.Document) prompts.Params {
		return prompts.Params{Difficulty: req.Difficulty, Num: req.Num}
	}
}
