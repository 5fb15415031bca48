package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Gen7Fuel/thehub-sub000/internal/service"
	sftpclient "github.com/Gen7Fuel/thehub-sub000/internal/sftp"
)

// SFTPFileHandler exposes read-only browsing of a site's report drop
// directory on the station back office.
type SFTPFileHandler struct {
	factory *sftpclient.Factory
	logger  *zap.Logger
}

func NewSFTPFileHandler(factory *sftpclient.Factory, logger *zap.Logger) *SFTPFileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SFTPFileHandler{factory: factory, logger: logger}
}

// RegisterRoutes registers SFTP browsing endpoints. Mounted
// site-scoped: /sites/{site}/files
func (h *SFTPFileHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{name}", h.Fetch)
}

func (h *SFTPFileHandler) List(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	client, err := h.factory.ForSite(site)
	if err != nil {
		var notConfigured sftpclient.ErrSiteNotConfigured
		if errors.As(err, &notConfigured) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no back office configured for site"})
			return
		}
		h.logger.Error("sftp client", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	files, err := client.List(r.Context(), service.ReportDir)
	if err != nil {
		h.logger.Warn("sftp list", zap.String("site", site), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "station back office unreachable"})
		return
	}
	if files == nil {
		files = []sftpclient.FileInfo{}
	}
	writeJSON(w, http.StatusOK, files)
}

// Fetch streams one report file back verbatim.
func (h *SFTPFileHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")
	name := chi.URLParam(r, "name")

	client, err := h.factory.ForSite(site)
	if err != nil {
		var notConfigured sftpclient.ErrSiteNotConfigured
		if errors.As(err, &notConfigured) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no back office configured for site"})
			return
		}
		h.logger.Error("sftp client", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	data, err := client.Fetch(r.Context(), service.ReportDir, name)
	if err != nil {
		h.logger.Warn("sftp fetch", zap.String("site", site), zap.String("file", name), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "station back office unreachable"})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
