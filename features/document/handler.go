package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"projecttutor/backend/internal/middleware"
)

type Handler struct {
	service   *Service
	uploadDir string
	maxBytes  int64
}

func NewHandler(service *Service, uploadDir string, maxUploadMB int64) *Handler {
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	if maxUploadMB <= 0 {
		maxUploadMB = 50
	}
	return &Handler{service: service, uploadDir: uploadDir, maxBytes: maxUploadMB << 20}
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		h.writeError(ctx, w, "BAD_REQUEST", "File too large", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(ctx, w, "BAD_REQUEST", "Unable to retrieve file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		h.writeError(ctx, w, "BAD_REQUEST", "Only PDF files allowed.", http.StatusBadRequest)
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o750); err != nil {
		slog.ErrorContext(ctx, "failed to create upload directory", "error", err, "path", filepath.Clean(h.uploadDir))
		h.writeError(ctx, w, "INTERNAL_ERROR", "Failed to create upload directory", http.StatusInternalServerError)
		return
	}

	filename := filepath.Base(header.Filename)
	path := filepath.Clean(filepath.Join(h.uploadDir, fmt.Sprintf("%s_%s", uuid.New().String(), filename)))

	// The PDF is only needed while ingesting.
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.WarnContext(ctx, "failed to clean up uploaded file", "error", err, "path", path)
		}
	}()

	if err := saveUpload(path, file); err != nil {
		slog.ErrorContext(ctx, "failed to save upload", "error", err, "path", path)
		h.writeError(ctx, w, "INTERNAL_ERROR", "Failed to save file", http.StatusInternalServerError)
		return
	}

	doc, err := h.service.Ingest(ctx, filename, path)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnreadable):
			h.writeError(ctx, w, "BAD_REQUEST", "Unable to read PDF.", http.StatusBadRequest)
		case errors.Is(err, ErrNoText):
			h.writeError(ctx, w, "BAD_REQUEST", "PDF contains no readable text.", http.StatusBadRequest)
		case errors.Is(err, ErrNoChunks):
			h.writeError(ctx, w, "BAD_REQUEST", "No substantial text after chunking.", http.StatusBadRequest)
		default:
			slog.ErrorContext(ctx, "ingest failed", "error", err, "filename", filename)
			h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(ctx, w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"doc_id":         doc.ID,
		"chroma_indexed": doc.Indexed,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	// Ensure we return [] instead of null for empty list
	if docs == nil {
		docs = []Document{}
	}

	h.writeJSON(r.Context(), w, http.StatusOK, map[string]interface{}{
		"data": docs,
		"meta": map[string]int{"count": len(docs)},
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("exclude_chunks") == "true" {
		doc.Chunks = nil
	}
	h.writeJSON(r.Context(), w, http.StatusOK, map[string]interface{}{"data": doc})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.service.RequestReindex(r.Context(), id); err != nil {
		h.writeServiceError(r.Context(), w, err)
		return
	}
	h.writeJSON(r.Context(), w, http.StatusAccepted, map[string]interface{}{"data": "reindex queued"})
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r)
	if !ok {
		return
	}
	h.writeJSON(r.Context(), w, http.StatusOK, map[string]interface{}{"summary": doc.Artifacts.Summary})
}

func (h *Handler) GetNotes(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r)
	if !ok {
		return
	}
	var notes interface{} = map[string]interface{}{}
	if doc.Artifacts.Notes != nil {
		notes = doc.Artifacts.Notes
	}
	h.writeJSON(r.Context(), w, http.StatusOK, map[string]interface{}{"notes": notes})
}

func (h *Handler) GetMCQ(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r)
	if !ok {
		return
	}
	h.writeJSON(r.Context(), w, http.StatusOK, doc.Artifacts.MCQ)
}

func (h *Handler) GetFillups(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r)
	if !ok {
		return
	}
	h.writeJSON(r.Context(), w, http.StatusOK, doc.Artifacts.Fillups)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*Document, bool) {
	doc, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(r.Context(), w, err)
		return nil, false
	}
	return doc, true
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		h.writeError(ctx, w, "NOT_FOUND", "Document not found", http.StatusNotFound)
		return
	}
	slog.ErrorContext(ctx, "document operation failed", "error", err)
	h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
}

func (h *Handler) writeJSON(ctx context.Context, w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
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

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path) // #nosec G304 -- path is UUID-prefixed basename inside the upload dir
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
