package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/Gen7Fuel/thehub-sub000/internal/cyclecount"
	"github.com/Gen7Fuel/thehub-sub000/internal/database"
	"github.com/Gen7Fuel/thehub-sub000/internal/enum"
)

// CycleCountStore defines the database methods needed by cycle count
// handlers.
type CycleCountStore interface {
	GetSite(ctx context.Context, code string) (database.Site, error)
	UpsertCycleCountItem(ctx context.Context, arg database.UpsertCycleCountItemParams) (database.CycleCountItem, error)
	ListCycleCountItems(ctx context.Context, site string) ([]database.CycleCountItem, error)
	LookupCycleCountItem(ctx context.Context, arg database.LookupCycleCountItemParams) (database.CycleCountItem, error)
	SaveCycleCount(ctx context.Context, arg database.SaveCycleCountParams) (database.CycleCountItem, error)
	StampDisplayDate(ctx context.Context, arg database.StampDisplayDateParams) error
}

type CycleCountHandler struct {
	store  CycleCountStore
	logger *zap.Logger
}

func NewCycleCountHandler(store CycleCountStore, logger *zap.Logger) *CycleCountHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CycleCountHandler{store: store, logger: logger}
}

// RegisterRoutes registers cycle count endpoints. Mounted site-scoped:
// /sites/{site}/cycle-counts
func (h *CycleCountHandler) RegisterRoutes(r chi.Router) {
	r.Post("/items", h.UploadItems)
	r.Get("/items", h.ListItems)
	r.Get("/items/lookup", h.Lookup)
	r.Get("/daily", h.DailyItems)
	r.Post("/counts", h.SaveCount)
}

// --- Request / Response types ---

type uploadItemRequest struct {
	UPC     string `json:"upc"`
	Name    string `json:"name"`
	Grade   string `json:"grade"`
	Flagged bool   `json:"flagged"`
	OnHand  int32  `json:"on_hand"`
}

type saveCountRequest struct {
	ItemID     string `json:"item_id"`
	CountedQty int32  `json:"counted_qty"`
}

type cycleItemResponse struct {
	ID          uuid.UUID  `json:"id"`
	Site        string     `json:"site"`
	UPC         string     `json:"upc"`
	Name        string     `json:"name"`
	Grade       string     `json:"grade"`
	Flagged     bool       `json:"flagged"`
	OnHand      int32      `json:"on_hand"`
	CountedQty  *int32     `json:"counted_qty"`
	CountedAt   *time.Time `json:"counted_at"`
	DisplayDate *string    `json:"display_date"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toCycleItemResponse(i database.CycleCountItem) cycleItemResponse {
	resp := cycleItemResponse{
		ID:        i.ID,
		Site:      i.Site,
		UPC:       i.Upc,
		Name:      i.Name,
		Grade:     i.Grade,
		Flagged:   i.Flagged,
		OnHand:    i.OnHand,
		UpdatedAt: i.UpdatedAt,
	}
	if i.CountedQty.Valid {
		resp.CountedQty = &i.CountedQty.Int32
	}
	if i.CountedAt.Valid {
		t := i.CountedAt.Time
		resp.CountedAt = &t
	}
	if i.DisplayDate.Valid {
		s := i.DisplayDate.Time.Format("2006-01-02")
		resp.DisplayDate = &s
	}
	return resp
}

func validGrade(g string) bool {
	return g == enum.ItemGradeA || g == enum.ItemGradeB || g == enum.ItemGradeC
}

// --- Handlers ---

// UploadItems bulk-upserts the site's countable items, keyed by UPC.
// A re-upload refreshes name, grade, flag, and on-hand quantity
// without losing count history.
func (h *CycleCountHandler) UploadItems(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	var items []uploadItemRequest
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no items provided"})
		return
	}
	for _, item := range items {
		if item.UPC == "" || item.Name == "" || !validGrade(item.Grade) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "each item needs upc, name, and grade A, B, or C"})
			return
		}
	}

	upserted := make([]cycleItemResponse, 0, len(items))
	for _, item := range items {
		row, err := h.store.UpsertCycleCountItem(r.Context(), database.UpsertCycleCountItemParams{
			Site:    site,
			Upc:     item.UPC,
			Name:    item.Name,
			Grade:   item.Grade,
			Flagged: item.Flagged,
			OnHand:  item.OnHand,
		})
		if err != nil {
			h.logger.Error("upsert cycle item", zap.String("upc", item.UPC), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		upserted = append(upserted, toCycleItemResponse(row))
	}

	writeJSON(w, http.StatusOK, upserted)
}

func (h *CycleCountHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	items, err := h.store.ListCycleCountItems(r.Context(), site)
	if err != nil {
		h.logger.Error("list cycle items", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]cycleItemResponse, len(items))
	for i, item := range items {
		resp[i] = toCycleItemResponse(item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Lookup finds one item by exact UPC or name fragment.
func (h *CycleCountHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q is required"})
		return
	}

	item, err := h.store.LookupCycleCountItem(r.Context(), database.LookupCycleCountItemParams{
		Site:  site,
		Query: query,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		h.logger.Error("lookup cycle item", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toCycleItemResponse(item))
}

// DailyItems returns today's count assignment. The display date is
// stamped only when the requester's tz query parameter names the same
// zone as the site, so a head-office viewer in another timezone can
// preview the list without burning the day's assignment.
func (h *CycleCountHandler) DailyItems(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	siteRow, err := h.store.GetSite(r.Context(), site)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "site not found"})
			return
		}
		h.logger.Error("get site", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	loc := time.UTC
	if l, err := time.LoadLocation(siteRow.Timezone); err == nil {
		loc = l
	}
	today := time.Now().In(loc)

	rows, err := h.store.ListCycleCountItems(r.Context(), site)
	if err != nil {
		h.logger.Error("list cycle items", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	byID := make(map[uuid.UUID]database.CycleCountItem, len(rows))
	pool := make([]cyclecount.Item, len(rows))
	for i, row := range rows {
		byID[row.ID] = row
		pool[i] = cyclecount.Item{
			ID:           row.ID,
			UPC:          row.Upc,
			Name:         row.Name,
			Grade:        row.Grade,
			Flagged:      row.Flagged,
			CountedToday: row.CountedAt.Valid && sameCalendarDay(row.CountedAt.Time, today, loc),
			UpdatedAt:    row.UpdatedAt,
		}
	}

	selection := cyclecount.SelectDaily(pool, chunkSizeParam(r))
	selected := selection.Items()

	if r.URL.Query().Get("tz") == siteRow.Timezone {
		ids := make([]uuid.UUID, len(selected))
		for i, item := range selected {
			ids[i] = item.ID
		}
		if len(ids) > 0 {
			stamp := pgtype.Date{Time: time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC), Valid: true}
			if err := h.store.StampDisplayDate(r.Context(), database.StampDisplayDateParams{
				Ids:         ids,
				DisplayDate: stamp,
			}); err != nil {
				h.logger.Warn("stamp display date", zap.Error(err))
			}
		}
	}

	resp := make([]cycleItemResponse, len(selected))
	for i, item := range selected {
		resp[i] = toCycleItemResponse(byID[item.ID])
	}
	writeJSON(w, http.StatusOK, resp)
}

// SaveCount records the counted quantity for one item.
func (h *CycleCountHandler) SaveCount(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	var req saveCountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}
	if req.CountedQty < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "counted_qty must not be negative"})
		return
	}

	item, err := h.store.SaveCycleCount(r.Context(), database.SaveCycleCountParams{
		Site:       site,
		ID:         itemID,
		CountedQty: pgtype.Int4{Int32: req.CountedQty, Valid: true},
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		h.logger.Error("save count", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toCycleItemResponse(item))
}

// --- Internals ---

func chunkSizeParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("chunk"))
	if err != nil || n <= 0 || n > 200 {
		return cyclecount.DefaultChunkSize
	}
	return n
}

func sameCalendarDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
