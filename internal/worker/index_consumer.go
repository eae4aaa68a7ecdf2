package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"

	"projecttutor/backend/internal/middleware"
)

// DefaultMaxAttempts is how often an index task is delivered before it is
// recorded as a failed job.
const DefaultMaxAttempts = 5

const indexTimeout = 5 * time.Minute

type Reindexer interface {
	Reindex(ctx context.Context, documentID string) error
}

type FailureRecorder interface {
	RecordAttempts(ctx context.Context, documentID, handler string, payload []byte, cause error, retries int) error
}

// IndexConsumer re-embeds a stored document's chunks for each IndexTask.
type IndexConsumer struct {
	reindexer   Reindexer
	failures    FailureRecorder
	maxAttempts uint16
	permanent   func(error) bool
}

// NewIndexConsumer builds the consumer. permanent reports errors that no
// redelivery can fix, such as a deleted document; it may be nil.
func NewIndexConsumer(r Reindexer, f FailureRecorder, maxAttempts uint16, permanent func(error) bool) *IndexConsumer {
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if permanent == nil {
		permanent = func(error) bool { return false }
	}
	return &IndexConsumer{reindexer: r, failures: f, maxAttempts: maxAttempts, permanent: permanent}
}

func (h *IndexConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var task IndexTask
	err := json.Unmarshal(m.Body, &task)

	correlationID := task.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	ctx := middleware.WithCorrelationID(context.Background(), correlationID)

	if err != nil {
		// Poison pill: invalid JSON, don't retry
		slog.ErrorContext(ctx, "invalid index task", "error", err)
		return nil
	}
	if task.DocumentID == "" {
		slog.ErrorContext(ctx, "index task without document id, dropping")
		return nil
	}

	indexCtx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	err = h.reindexer.Reindex(indexCtx, task.DocumentID)
	if err == nil {
		slog.InfoContext(ctx, "document indexed", "doc_id", task.DocumentID, "attempt", m.Attempts)
		return nil
	}

	if h.permanent(err) {
		slog.WarnContext(ctx, "dropping index task", "doc_id", task.DocumentID, "error", err)
		return nil
	}

	if m.Attempts < h.maxAttempts {
		slog.WarnContext(ctx, "index attempt failed, requeueing", "doc_id", task.DocumentID, "attempt", m.Attempts, "error", err)
		return err
	}

	slog.ErrorContext(ctx, "index attempts exhausted", "doc_id", task.DocumentID, "attempts", m.Attempts, "error", err)
	if h.failures != nil {
		if rerr := h.failures.RecordAttempts(ctx, task.DocumentID, HandlerIndex, m.Body, err, int(m.Attempts)); rerr != nil {
			slog.ErrorContext(ctx, "failed to save failed job", "error", rerr)
		}
	}
	return nil
}
