package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Gen7Fuel/thehub-sub000/internal/database"
	"github.com/Gen7Fuel/thehub-sub000/internal/enum"
	"github.com/Gen7Fuel/thehub-sub000/internal/ledger"
	"github.com/Gen7Fuel/thehub-sub000/internal/service"
)

// CashSummaryStore defines the database methods needed by cash
// summary handlers.
type CashSummaryStore interface {
	GetSite(ctx context.Context, code string) (database.Site, error)
	CreateCashSummary(ctx context.Context, arg database.CreateCashSummaryParams) (database.CashSummary, error)
	GetCashSummary(ctx context.Context, id uuid.UUID) (database.CashSummary, error)
	ListCashSummaries(ctx context.Context, arg database.ListCashSummariesParams) ([]database.CashSummary, error)
}

// ReportSyncer pulls shift reports off the station back office and
// attaches them to matching summaries.
type ReportSyncer interface {
	SyncSite(ctx context.Context, site string, day time.Time) error
}

// Submitter finalizes a summary and fans out its side effects.
type Submitter interface {
	Submit(ctx context.Context, id uuid.UUID, deposit decimal.Decimal, recipient string) (database.CashSummary, error)
}

type CashSummaryHandler struct {
	store     CashSummaryStore
	submitter Submitter
	syncer    ReportSyncer
	recipient string
	logger    *zap.Logger
}

func NewCashSummaryHandler(store CashSummaryStore, submitter Submitter, syncer ReportSyncer, recipient string, logger *zap.Logger) *CashSummaryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CashSummaryHandler{
		store:     store,
		submitter: submitter,
		syncer:    syncer,
		recipient: recipient,
		logger:    logger,
	}
}

// RegisterRoutes registers cash summary endpoints. Mounted site-scoped:
// /sites/{site}/cash-summaries
func (h *CashSummaryHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/report", h.AttachReport)
	r.Post("/{id}/submit", h.Submit)
}

// --- Request / Response types ---

type createSummaryRequest struct {
	BusinessDate  string `json:"business_date"`
	ShiftNumber   int32  `json:"shift_number"`
	FuelSales     string `json:"fuel_sales"`
	MerchSales    string `json:"merch_sales"`
	CashCollected string `json:"cash_collected"`
	CardCollected string `json:"card_collected"`
	DepositAmount string `json:"deposit_amount"`
	Notes         string `json:"notes"`
}

type submitSummaryRequest struct {
	DepositAmount string `json:"deposit_amount"`
}

type summaryResponse struct {
	ID            uuid.UUID       `json:"id"`
	Site          string          `json:"site"`
	BusinessDate  string          `json:"business_date"`
	ShiftNumber   int32           `json:"shift_number"`
	FuelSales     string          `json:"fuel_sales"`
	MerchSales    string          `json:"merch_sales"`
	CashCollected string          `json:"cash_collected"`
	CardCollected string          `json:"card_collected"`
	DepositAmount string          `json:"deposit_amount"`
	Notes         *string         `json:"notes"`
	Report        json.RawMessage `json:"report"`
	Status        string          `json:"status"`
	SubmittedAt   *time.Time      `json:"submitted_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toSummaryResponse(s database.CashSummary) summaryResponse {
	resp := summaryResponse{
		ID:            s.ID,
		Site:          s.Site,
		BusinessDate:  s.BusinessDate.Format("2006-01-02"),
		ShiftNumber:   s.ShiftNumber,
		FuelSales:     numericToString(s.FuelSales),
		MerchSales:    numericToString(s.MerchSales),
		CashCollected: numericToString(s.CashCollected),
		CardCollected: numericToString(s.CardCollected),
		DepositAmount: numericToString(s.DepositAmount),
		Report:        s.Report,
		Status:        s.Status,
		CreatedAt:     s.CreatedAt,
	}
	if s.Notes.Valid {
		resp.Notes = &s.Notes.String
	}
	if s.SubmittedAt.Valid {
		resp.SubmittedAt = &s.SubmittedAt.Time
	}
	return resp
}

// --- Handlers ---

func (h *CashSummaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	var req createSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	day, ok := parseDateParam(req.BusinessDate, time.UTC)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "business_date must be YYYY-MM-DD"})
		return
	}
	if req.ShiftNumber < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "shift_number must be positive"})
		return
	}

	arg := database.CreateCashSummaryParams{
		Site:         site,
		BusinessDate: day,
		ShiftNumber:  req.ShiftNumber,
		Notes:        textOrNull(req.Notes),
	}
	for _, f := range []struct {
		in  string
		out *pgtype.Numeric
	}{
		{req.FuelSales, &arg.FuelSales},
		{req.MerchSales, &arg.MerchSales},
		{req.CashCollected, &arg.CashCollected},
		{req.CardCollected, &arg.CardCollected},
		{req.DepositAmount, &arg.DepositAmount},
	} {
		n, err := parseAmount(f.in)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
			return
		}
		*f.out = n
	}

	summary, err := h.store.CreateCashSummary(r.Context(), arg)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "summary already exists for this site, date, and shift"})
			return
		}
		h.logger.Error("create cash summary", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toSummaryResponse(summary))
}

func (h *CashSummaryHandler) List(w http.ResponseWriter, r *http.Request) {
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

	summaries, err := h.store.ListCashSummaries(r.Context(), database.ListCashSummariesParams{
		Site: site,
		From: from,
		To:   to,
	})
	if err != nil {
		h.logger.Error("list cash summaries", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]summaryResponse, len(summaries))
	for i, s := range summaries {
		resp[i] = toSummaryResponse(s)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CashSummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

// AttachReport pulls the day's shift reports for the summary's site and
// attaches any that match. 502 when the station back office cannot be
// reached after retries.
func (h *CashSummaryHandler) AttachReport(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := h.syncer.SyncSite(r.Context(), summary.Site, summary.BusinessDate); err != nil {
		h.logger.Warn("report sync", zap.String("site", summary.Site), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "station back office unreachable"})
		return
	}

	refreshed, err := h.store.GetCashSummary(r.Context(), summary.ID)
	if err != nil {
		h.logger.Error("reload cash summary", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(refreshed))
}

// Submit flips the summary out of draft and kicks off the deposit
// entry, email, and websocket fan-out. Side effect failures are logged
// and retried; the submission itself never rolls back.
func (h *CashSummaryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if summary.Status != enum.CashSummaryStatusDraft {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "summary already submitted"})
		return
	}

	var req submitSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	deposit := service.NumericToDecimal(summary.DepositAmount)
	if req.DepositAmount != "" {
		d, err := decimal.NewFromString(req.DepositAmount)
		if err != nil || d.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid deposit amount"})
			return
		}
		deposit = d
	}

	submitted, err := h.submitter.Submit(r.Context(), summary.ID, deposit, h.recipient)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "summary already submitted"})
			return
		}
		h.logger.Error("submit cash summary", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toSummaryResponse(submitted))
}

// --- Internals ---

func (h *CashSummaryHandler) lookup(w http.ResponseWriter, r *http.Request) (database.CashSummary, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid summary ID"})
		return database.CashSummary{}, false
	}

	summary, err := h.store.GetCashSummary(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "summary not found"})
			return database.CashSummary{}, false
		}
		h.logger.Error("load cash summary", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return database.CashSummary{}, false
	}

	site := chi.URLParam(r, "site")
	if site != "" && summary.Site != site {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "summary not found"})
		return database.CashSummary{}, false
	}
	return summary, true
}
