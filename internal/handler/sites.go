package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/Gen7Fuel/thehub-sub000/internal/database"
)

// SiteStore defines the database methods needed by site handlers.
type SiteStore interface {
	ListSites(ctx context.Context) ([]database.Site, error)
	GetSite(ctx context.Context, code string) (database.Site, error)
	CreateSite(ctx context.Context, arg database.CreateSiteParams) (database.Site, error)
}

type SiteHandler struct {
	store  SiteStore
	logger *zap.Logger
}

func NewSiteHandler(store SiteStore, logger *zap.Logger) *SiteHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SiteHandler{store: store, logger: logger}
}

func (h *SiteHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{site}", h.Get)
}

type createSiteRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

type siteResponse struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
}

func toSiteResponse(s database.Site) siteResponse {
	return siteResponse{Code: s.Code, Name: s.Name, Timezone: s.Timezone, CreatedAt: s.CreatedAt}
}

func (h *SiteHandler) List(w http.ResponseWriter, r *http.Request) {
	sites, err := h.store.ListSites(r.Context())
	if err != nil {
		h.logger.Error("list sites", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]siteResponse, len(sites))
	for i, s := range sites {
		resp[i] = toSiteResponse(s)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SiteHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "site")

	site, err := h.store.GetSite(r.Context(), code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "site not found"})
			return
		}
		h.logger.Error("get site", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toSiteResponse(site))
}

func (h *SiteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Code == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code and name are required"})
		return
	}
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown timezone"})
		return
	}

	site, err := h.store.CreateSite(r.Context(), database.CreateSiteParams{
		Code:     req.Code,
		Name:     req.Name,
		Timezone: req.Timezone,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "site code already exists"})
			return
		}
		h.logger.Error("create site", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toSiteResponse(site))
}
