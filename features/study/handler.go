package study

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"projecttutor/backend/features/document"
	"projecttutor/backend/internal/middleware"
	"projecttutor/backend/internal/retrieval"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseGenerate(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(r.Context(), req)
	if err != nil {
		h.writeServiceError(r.Context(), w, err)
		return
	}
	h.writeJSON(r.Context(), w, map[string]interface{}{"summary": summary})
}

func (h *Handler) Notes(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseGenerate(w, r)
	if !ok {
		return
	}
	notes, err := h.service.Notes(r.Context(), req)
	if err != nil {
		h.writeServiceError(r.Context(), w, err)
		return
	}
	h.writeJSON(r.Context(), w, notes)
}

func (h *Handler) MCQ(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseGenerate(w, r)
	if !ok {
		return
	}
	items, err := h.service.MCQ(r.Context(), req)
	if err != nil {
		h.writeServiceError(r.Context(), w, err)
		return
	}
	h.writeJSON(r.Context(), w, map[string]interface{}{"difficulty": req.Difficulty, "count": len(items)})
}

func (h *Handler) Fillups(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseGenerate(w, r)
	if !ok {
		return
	}
	items, err := h.service.Fillups(r.Context(), req)
	if err != nil {
		h.writeServiceError(r.Context(), w, err)
		return
	}
	h.writeJSON(r.Context(), w, map[string]interface{}{"difficulty": req.Difficulty, "count": len(items)})
}

func (h *Handler) SaveMCQProgress(w http.ResponseWriter, r *http.Request) {
	h.saveProgress(w, r, h.service.SaveMCQProgress)
}

func (h *Handler) SaveFillupsProgress(w http.ResponseWriter, r *http.Request) {
	h.saveProgress(w, r, h.service.SaveFillupsProgress)
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decode(w, r)
	if !ok {
		return
	}
	req, err := ParseChat(body)
	if err != nil {
		h.writeServiceError(r.Context(), w, err)
		return
	}
	answer, err := h.service.Chat(r.Context(), req)
	if err != nil {
		h.writeServiceError(r.Context(), w, err)
		return
	}
	h.writeJSON(r.Context(), w, map[string]interface{}{"answer": answer})
}

func (h *Handler) saveProgress(w http.ResponseWriter, r *http.Request, save func(context.Context, ProgressRequest) error) {
	body, ok := h.decode(w, r)
	if !ok {
		return
	}
	req, err := ParseProgress(body)
	if err != nil {
		h.writeServiceError(r.Context(), w, err)
		return
	}
	if err := save(r.Context(), req); err != nil {
		h.writeServiceError(r.Context(), w, err)
		return
	}
	h.writeJSON(r.Context(), w, map[string]interface{}{"status": "ok"})
}

func (h *Handler) parseGenerate(w http.ResponseWriter, r *http.Request) (GenerateRequest, bool) {
	body, ok := h.decode(w, r)
	if !ok {
		return GenerateRequest{}, false
	}
	req, err := ParseGenerate(body)
	if err != nil {
		h.writeServiceError(r.Context(), w, err)
		return GenerateRequest{}, false
	}
	return req, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
	case errors.Is(err, document.ErrNotFound):
		h.writeError(ctx, w, "NOT_FOUND", "Document not found", http.StatusNotFound)
	case errors.Is(err, retrieval.ErrNoGrounding):
		h.writeError(ctx, w, "NO_GROUNDING", "No relevant chunks found in the document.", http.StatusBadRequest)
	case errors.Is(err, ErrNoItems):
		h.writeError(ctx, w, "NO_ITEMS", "No quiz items found for this difficulty.", http.StatusBadRequest)
	case errors.Is(err, ErrUpstream):
		slog.ErrorContext(ctx, "upstream provider failed", "error", err)
		h.writeError(ctx, w, "UPSTREAM_ERROR", err.Error(), http.StatusBadGateway)
	default:
		slog.ErrorContext(ctx, "study operation failed", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(ctx context.Context, w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
