package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Gen7Fuel/thehub-sub000/internal/database"
	"github.com/Gen7Fuel/thehub-sub000/internal/enum"
	"github.com/Gen7Fuel/thehub-sub000/internal/ledger"
)

// WriteOffStore defines the database methods needed by write-off
// handlers.
type WriteOffStore interface {
	GetSite(ctx context.Context, code string) (database.Site, error)
	CreateWriteOff(ctx context.Context, arg database.CreateWriteOffParams) (database.WriteOff, error)
	ListWriteOffs(ctx context.Context, arg database.ListWriteOffsParams) ([]database.WriteOff, error)
}

type WriteOffHandler struct {
	store  WriteOffStore
	logger *zap.Logger
}

func NewWriteOffHandler(store WriteOffStore, logger *zap.Logger) *WriteOffHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WriteOffHandler{store: store, logger: logger}
}

// RegisterRoutes registers write-off endpoints. Mounted site-scoped:
// /sites/{site}/write-offs
func (h *WriteOffHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
}

type createWriteOffRequest struct {
	UPC          string `json:"upc"`
	ItemName     string `json:"item_name"`
	Quantity     int32  `json:"quantity"`
	Reason       string `json:"reason"`
	WriteOffDate string `json:"write_off_date"`
}

type writeOffResponse struct {
	ID           uuid.UUID `json:"id"`
	Site         string    `json:"site"`
	UPC          string    `json:"upc"`
	ItemName     string    `json:"item_name"`
	Quantity     int32     `json:"quantity"`
	Reason       string    `json:"reason"`
	WriteOffDate string    `json:"write_off_date"`
	CreatedAt    time.Time `json:"created_at"`
}

func toWriteOffResponse(wo database.WriteOff) writeOffResponse {
	return writeOffResponse{
		ID:           wo.ID,
		Site:         wo.Site,
		UPC:          wo.Upc,
		ItemName:     wo.ItemName,
		Quantity:     wo.Quantity,
		Reason:       wo.Reason,
		WriteOffDate: wo.WriteOffDate.Format("2006-01-02"),
		CreatedAt:    wo.CreatedAt,
	}
}

func validWriteOffReason(reason string) bool {
	switch reason {
	case enum.WriteOffReasonDamaged, enum.WriteOffReasonExpired, enum.WriteOffReasonTheft, enum.WriteOffReasonOther:
		return true
	}
	return false
}

func (h *WriteOffHandler) List(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	loc := time.UTC
	if s, err := h.store.GetSite(r.Context(), site); err == nil {
		if l, err := time.LoadLocation(s.Timezone); err == nil {
			loc = l
		}
	}

	from, fromOK := parseDateParam(r.URL.Query().Get("from"), loc)
	to, toOK := parseDateParam(r.URL.Query().Get("to"), loc)
	if !fromOK || !toOK || to.Before(from) {
		from, to = ledger.DefaultRange(time.Now(), loc)
	}

	writeOffs, err := h.store.ListWriteOffs(r.Context(), database.ListWriteOffsParams{
		Site: site,
		From: from,
		To:   to,
	})
	if err != nil {
		h.logger.Error("list write-offs", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]writeOffResponse, len(writeOffs))
	for i, wo := range writeOffs {
		resp[i] = toWriteOffResponse(wo)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *WriteOffHandler) Create(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	var req createWriteOffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.UPC == "" || req.ItemName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "upc and item_name are required"})
		return
	}
	if req.Quantity < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must be positive"})
		return
	}
	if !validWriteOffReason(req.Reason) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reason must be one of DAMAGED, EXPIRED, THEFT, OTHER"})
		return
	}
	day, ok := parseDateParam(req.WriteOffDate, time.UTC)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "write_off_date must be YYYY-MM-DD"})
		return
	}

	writeOff, err := h.store.CreateWriteOff(r.Context(), database.CreateWriteOffParams{
		Site:         site,
		Upc:          req.UPC,
		ItemName:     req.ItemName,
		Quantity:     req.Quantity,
		Reason:       req.Reason,
		WriteOffDate: day,
	})
	if err != nil {
		h.logger.Error("create write-off", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toWriteOffResponse(writeOff))
}
