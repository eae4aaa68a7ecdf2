package document

import (
	"context"
	"errors"
	"time"

	"projecttutor/backend/internal/generation"
	"projecttutor/backend/internal/text"
)

var (
	ErrNotFound   = errors.New("document not found")
	ErrNoText     = errors.New("pdf contains no readable text")
	ErrNoChunks   = errors.New("no substantial text after chunking")
	ErrUnreadable = errors.New("unreadable pdf")
	ErrNotPDF     = errors.New("only pdf files are allowed")
)

// Artifact paths accepted by Repository.SetArtifact.
const (
	FieldSummary            = "summary"
	FieldNotes              = "notes"
	FieldKeywords           = "keywords"
	FieldMCQ                = "mcq"
	FieldFillups            = "fillups"
	FieldMCQLastUpdated     = "mcq_last_updated"
	FieldFillupsLastUpdated = "fillups_last_updated"
)

// Artifacts are the generated study materials of a document. Quiz sets are
// keyed by difficulty.
type Artifacts struct {
	Summary            string                             `json:"summary,omitempty" bson:"summary,omitempty"`
	Notes              *generation.Notes                  `json:"notes,omitempty" bson:"notes,omitempty"`
	Keywords           []string                           `json:"keywords,omitempty" bson:"keywords,omitempty"`
	MCQ                map[string][]generation.MCQItem    `json:"mcq" bson:"mcq"`
	Fillups            map[string][]generation.FillupItem `json:"fillups" bson:"fillups"`
	MCQLastUpdated     *time.Time                         `json:"mcq_last_updated,omitempty" bson:"mcq_last_updated,omitempty"`
	FillupsLastUpdated *time.Time                         `json:"fillups_last_updated,omitempty" bson:"fillups_last_updated,omitempty"`
}

// NewArtifacts returns empty artifacts with the quiz maps allocated, so
// per-difficulty paths can be set on a fresh document.
func NewArtifacts() Artifacts {
	return Artifacts{
		MCQ:     map[string][]generation.MCQItem{},
		Fillups: map[string][]generation.FillupItem{},
	}
}

// EnsureMaps allocates quiz maps missing from stored artifacts.
func (a *Artifacts) EnsureMaps() {
	if a.MCQ == nil {
		a.MCQ = map[string][]generation.MCQItem{}
	}
	if a.Fillups == nil {
		a.Fillups = map[string][]generation.FillupItem{}
	}
}

type Document struct {
	ID         string       `json:"id" bson:"doc_id"`
	Filename   string       `json:"filename" bson:"filename"`
	PagesCount int          `json:"pages_count" bson:"pages_count"`
	Indexed    bool         `json:"indexed" bson:"indexed"`
	ChunkCount int          `json:"chunk_count" bson:"chunk_count"`
	Chunks     []text.Chunk `json:"chunks,omitempty" bson:"chunks"`
	Artifacts  Artifacts    `json:"artifacts" bson:"artifacts"`
	CreatedAt  time.Time    `json:"created_at" bson:"created_at"`
}

// Repository stores documents with their chunks and artifacts.
type Repository interface {
	Save(ctx context.Context, doc *Document) error
	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (*Document, error)
	// List omits chunks and artifacts.
	List(ctx context.Context) ([]Document, error)
	SetIndexed(ctx context.Context, id string, indexed bool) error
	// SetArtifact replaces one artifact value, e.g. path {"mcq", "easy"},
	// leaving the other artifacts untouched.
	SetArtifact(ctx context.Context, id string, path []string, value any) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
