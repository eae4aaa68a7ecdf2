package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"projecttutor/backend/internal/middleware"
	"projecttutor/backend/internal/vector"
)

// Query outcomes written to the query log.
const (
	OutcomeOK          = "ok"
	OutcomeNoGrounding = "no_grounding"
	OutcomeError       = "error"
)

// QueryLogEntry is one line of the query log. BestDistance is the cosine
// distance of the top hit and is omitted when there were no hits.
type QueryLogEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id"`
	DocumentID    string    `json:"document_id"`
	Query         string    `json:"query"`
	Requested     int       `json:"n_results"`
	NumResults    int       `json:"num_hits"`
	BestDistance  *float32  `json:"best_distance,omitempty"`
	Outcome       string    `json:"outcome"`
	Error         string    `json:"error,omitempty"`
	LatencyMs     int64     `json:"latency_ms"`
}

// QueryLogger appends JSON lines to w. It is safe for concurrent use.
type QueryLogger struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

func NewQueryLogger(w io.Writer) *QueryLogger {
	return &QueryLogger{enc: json.NewEncoder(w)}
}

// NewFileQueryLogger appends to path, creating its directory if needed.
func NewFileQueryLogger(path string) (*QueryLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304 -- path is from application config
	if err != nil {
		return nil, err
	}
	l := NewQueryLogger(f)
	l.closer = f
	return l, nil
}

// Record logs one retrieval. Hits and err describe how it ended.
func (l *QueryLogger) Record(ctx context.Context, documentID, query string, requested int, hits []vector.Hit, err error, took time.Duration) {
	entry := QueryLogEntry{
		Timestamp:     time.Now().UTC(),
		CorrelationID: middleware.GetCorrelationID(ctx),
		DocumentID:    documentID,
		Query:         query,
		Requested:     requested,
		NumResults:    len(hits),
		Outcome:       OutcomeOK,
		LatencyMs:     took.Milliseconds(),
	}
	if len(hits) > 0 {
		d := hits[0].Distance
		entry.BestDistance = &d
	}
	switch {
	case errors.Is(err, ErrNoGrounding):
		entry.Outcome = OutcomeNoGrounding
	case err != nil:
		entry.Outcome = OutcomeError
		entry.Error = err.Error()
	}
	l.write(ctx, entry)
}

func (l *QueryLogger) write(ctx context.Context, entry QueryLogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(entry); err != nil {
		slog.ErrorContext(ctx, "failed to write query log entry", "error", err)
	}
}

// Close closes the log file. It is a no-op for writer-backed loggers.
func (l *QueryLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
