package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Ten megabytes is plenty for a phone photo of a deposit slip.
const maxUploadBytes = 10 << 20

// Uploader pushes a file to the CDN and returns its stored filename.
type Uploader interface {
	Upload(ctx context.Context, site, filename string, data []byte) (string, error)
}

// UploadHandler proxies deposit-slip photos to the CDN so stations
// never talk to it directly. The returned filename goes into a ledger
// entry's photo field.
type UploadHandler struct {
	cdn    Uploader
	logger *zap.Logger
}

func NewUploadHandler(cdn Uploader, logger *zap.Logger) *UploadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadHandler{cdn: cdn, logger: logger}
}

// RegisterRoutes registers the upload endpoint. Mounted site-scoped:
// /sites/{site}/uploads
func (h *UploadHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Upload)
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "expected multipart form"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file field is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		h.logger.Error("read upload", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if len(data) > maxUploadBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large"})
		return
	}

	filename, err := h.cdn.Upload(r.Context(), site, header.Filename, data)
	if err != nil {
		h.logger.Warn("cdn upload", zap.String("site", site), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upload service unavailable"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"filename": filename})
}
