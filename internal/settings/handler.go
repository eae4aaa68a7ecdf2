package settings

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"projecttutor/backend/internal/middleware"
)

const maxSettingsBody = 64 << 10

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GetSettings returns the stored settings with the API key masked.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Get(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, map[string]interface{}{"data": s.Masked()})
}

// UpdateSettings replaces the settings and echoes the stored, masked result.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSettingsBody))
	dec.DisallowUnknownFields()

	var s Settings
	if err := dec.Decode(&s); err != nil {
		h.fail(w, r, errors.Join(ErrInvalid, err))
		return
	}
	if err := h.svc.Update(r.Context(), &s); err != nil {
		h.fail(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "settings updated", "llm_model", s.LLMModel, "embed_model", s.EmbedModel)
	h.respond(w, r, http.StatusOK, map[string]interface{}{"data": s.Masked()})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, status := "INTERNAL_ERROR", http.StatusInternalServerError
	if errors.Is(err, ErrInvalid) {
		code, status = "VALIDATION_ERROR", http.StatusBadRequest
	} else {
		slog.ErrorContext(r.Context(), "settings request failed", "error", err)
	}
	h.respond(w, r, status, map[string]interface{}{
		"error":         map[string]string{"code": code, "message": err.Error()},
		"correlationId": middleware.GetCorrelationID(r.Context()),
	})
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}
