package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"projecttutor/backend/internal/middleware"
)

// Counter is any store that can report its size.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	documents Counter
	jobs      Counter
	vectors   Counter
}

func NewHandler(documents, jobs, vectors Counter) *Handler {
	return &Handler{documents: documents, jobs: jobs, vectors: vectors}
}

type StatsResponse struct {
	Documents     int `json:"documents"`
	FailedJobs    int `json:"failed_jobs"`
	VectorRecords int `json:"vector_records"`
}

// Collect counts the three stores concurrently. The first failure cancels
// the others.
func (h *Handler) Collect(ctx context.Context) (StatsResponse, error) {
	var resp StatsResponse
	g, gctx := errgroup.WithContext(ctx)

	count := func(name string, c Counter, dst *int) {
		g.Go(func() error {
			n, err := c.Count(gctx)
			if err != nil {
				return fmt.Errorf("count %s: %w", name, err)
			}
			*dst = n
			return nil
		})
	}
	count("documents", h.documents, &resp.Documents)
	count("failed jobs", h.jobs, &resp.FailedJobs)
	count("vector records", h.vectors, &resp.VectorRecords)

	if err := g.Wait(); err != nil {
		return StatsResponse{}, err
	}
	return resp, nil
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := h.Collect(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to collect stats", "error", err)
		h.write(ctx, w, http.StatusInternalServerError, map[string]interface{}{
			"error":         map[string]string{"code": "INTERNAL_ERROR", "message": err.Error()},
			"correlationId": middleware.GetCorrelationID(ctx),
		})
		return
	}
	slog.DebugContext(ctx, "stats collected", "documents", resp.Documents, "failed_jobs", resp.FailedJobs, "vector_records", resp.VectorRecords)
	h.write(ctx, w, http.StatusOK, map[string]interface{}{"data": resp})
}

func (h *Handler) write(ctx context.Context, w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
