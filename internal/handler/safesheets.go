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
	"go.uber.org/zap"

	"github.com/Gen7Fuel/thehub-sub000/internal/database"
	"github.com/Gen7Fuel/thehub-sub000/internal/ledger"
	"github.com/Gen7Fuel/thehub-sub000/internal/service"
)

// SafesheetStore defines the database methods needed by safesheet
// handlers. Satisfied by *database.Queries; narrow interface for
// testability.
type SafesheetStore interface {
	GetSite(ctx context.Context, code string) (database.Site, error)
	GetSafesheetBySite(ctx context.Context, site string) (database.Safesheet, error)
	CreateSafesheet(ctx context.Context, arg database.CreateSafesheetParams) (database.Safesheet, error)
	ListSafesheetEntries(ctx context.Context, safesheetID uuid.UUID) ([]database.SafesheetEntry, error)
	CreateSafesheetEntry(ctx context.Context, arg database.CreateSafesheetEntryParams) (database.SafesheetEntry, error)
	UpdateSafesheetEntry(ctx context.Context, arg database.UpdateSafesheetEntryParams) (database.SafesheetEntry, error)
}

// SafesheetHandler exposes the per-site cash ledger.
type SafesheetHandler struct {
	store  SafesheetStore
	logger *zap.Logger
}

func NewSafesheetHandler(store SafesheetStore, logger *zap.Logger) *SafesheetHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SafesheetHandler{store: store, logger: logger}
}

// RegisterRoutes registers ledger endpoints. Mounted site-scoped:
// /sites/{site}/safesheet
func (h *SafesheetHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.GetRange)
	r.Get("/current", h.GetCurrent)
	r.Get("/daily-balances", h.GetDailyBalances)
	r.Post("/entries", h.AddEntry)
	r.Put("/entries/{id}", h.UpdateEntry)
}

// --- Request / Response types ---

type createSafesheetRequest struct {
	InitialBalance string `json:"initial_balance"`
}

type addEntryRequest struct {
	Date            string `json:"date"`
	Description     string `json:"description"`
	CashIn          string `json:"cash_in"`
	CashExpenseOut  string `json:"cash_expense_out"`
	CashDepositBank string `json:"cash_deposit_bank"`
	Photo           string `json:"photo"`
	AssignedDate    string `json:"assigned_date"`
}

type updateEntryRequest struct {
	Description     *string `json:"description"`
	CashIn          *string `json:"cash_in"`
	CashExpenseOut  *string `json:"cash_expense_out"`
	CashDepositBank *string `json:"cash_deposit_bank"`
	Photo           *string `json:"photo"`
	AssignedDate    *string `json:"assigned_date"`
}

type entryResponse struct {
	ID              uuid.UUID `json:"id"`
	Date            string    `json:"date"`
	AssignedDate    *string   `json:"assigned_date"`
	Description     string    `json:"description"`
	CashIn          string    `json:"cash_in"`
	CashExpenseOut  string    `json:"cash_expense_out"`
	CashDepositBank string    `json:"cash_deposit_bank"`
	Photo           *string   `json:"photo"`
	CashOnHandSafe  string    `json:"cash_on_hand_safe"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ledgerResponse struct {
	Site           string          `json:"site"`
	InitialBalance string          `json:"initial_balance"`
	Entries        []entryResponse `json:"entries"`
}

type dailyBalanceResponse struct {
	Day          string `json:"day"`
	Balance      string `json:"balance"`
	DepositTotal string `json:"deposit_total"`
	EntryCount   int    `json:"entry_count"`
}

func toEntryResponse(e ledger.Entry) entryResponse {
	resp := entryResponse{
		ID:              e.ID,
		Date:            e.Date.Format("2006-01-02"),
		Description:     e.Description,
		CashIn:          e.CashIn.StringFixed(2),
		CashExpenseOut:  e.CashExpenseOut.StringFixed(2),
		CashDepositBank: e.CashDepositBank.StringFixed(2),
		CashOnHandSafe:  e.CashOnHandSafe.StringFixed(2),
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	if e.Photo != "" {
		resp.Photo = &e.Photo
	}
	if e.AssignedDate != nil {
		s := e.AssignedDate.Format("2006-01-02")
		resp.AssignedDate = &s
	}
	return resp
}

// --- Handlers ---

// Create opens a ledger for the site. Creation is explicit here;
// automatic flows (daily deposits, safe payouts) lazily create sheets
// through their own path.
func (h *SafesheetHandler) Create(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	var req createSafesheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	balance, err := parseAmount(req.InitialBalance)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid initial balance"})
		return
	}

	sheet, err := h.store.CreateSafesheet(r.Context(), database.CreateSafesheetParams{
		Site:           site,
		InitialBalance: balance,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "safesheet already exists for site"})
			return
		}
		h.logger.Error("create safesheet", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, ledgerResponse{
		Site:           sheet.Site,
		InitialBalance: numericToString(sheet.InitialBalance),
		Entries:        []entryResponse{},
	})
}

// GetRange returns the recomputed ledger filtered to a date window.
// Absent or malformed from/to fall back to the trailing seven days in
// the site's local calendar. ?sort=assigned orders and filters by the
// external posting date instead.
func (h *SafesheetHandler) GetRange(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	sheet, entries, loc, ok := h.loadLedger(w, r, site)
	if !ok {
		return
	}

	mode := ledger.SortByDate
	if r.URL.Query().Get("sort") == "assigned" {
		mode = ledger.SortByAssignedDate
	}

	from, fromOK := parseDateParam(r.URL.Query().Get("from"), loc)
	to, toOK := parseDateParam(r.URL.Query().Get("to"), loc)
	if !fromOK || !toOK || to.Before(from) {
		from, to = ledger.DefaultRange(time.Now(), loc)
	}

	filtered := ledger.FilterRange(service.NumericToDecimal(sheet.InitialBalance), entries, from, to, mode, loc)

	resp := ledgerResponse{
		Site:           sheet.Site,
		InitialBalance: numericToString(sheet.InitialBalance),
		Entries:        make([]entryResponse, len(filtered)),
	}
	for i, e := range filtered {
		resp.Entries[i] = toEntryResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetCurrent returns cash on hand right now: the balance after the
// last entry in full chronological order, ignoring any range.
func (h *SafesheetHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	sheet, entries, _, ok := h.loadLedger(w, r, site)
	if !ok {
		return
	}

	current := ledger.Current(service.NumericToDecimal(sheet.InitialBalance), entries)
	writeJSON(w, http.StatusOK, map[string]string{
		"site":         sheet.Site,
		"cash_on_hand": current.StringFixed(2),
	})
}

// GetDailyBalances returns the per-day projection over the window,
// carrying balances forward across days with no entries.
func (h *SafesheetHandler) GetDailyBalances(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	sheet, entries, loc, ok := h.loadLedger(w, r, site)
	if !ok {
		return
	}

	from, fromOK := parseDateParam(r.URL.Query().Get("from"), loc)
	to, toOK := parseDateParam(r.URL.Query().Get("to"), loc)
	if !fromOK || !toOK || to.Before(from) {
		from, to = ledger.DefaultRange(time.Now(), loc)
	}

	days := ledger.DailyBalances(service.NumericToDecimal(sheet.InitialBalance), entries, from, to, loc)
	resp := make([]dailyBalanceResponse, len(days))
	for i, d := range days {
		resp[i] = dailyBalanceResponse{
			Day:          d.Day.Format("2006-01-02"),
			Balance:      d.Balance.StringFixed(2),
			DepositTotal: d.DepositTotal.StringFixed(2),
			EntryCount:   d.EntryCount,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// AddEntry appends one cash movement and returns the full recomputed
// ledger.
func (h *SafesheetHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	var req addEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Date == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date is required"})
		return
	}

	loc := h.siteLocation(r.Context(), site)
	date, ok := parseDateParam(req.Date, loc)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}

	cashIn, err1 := parseAmount(req.CashIn)
	expenseOut, err2 := parseAmount(req.CashExpenseOut)
	depositBank, err3 := parseAmount(req.CashDepositBank)
	if err1 != nil || err2 != nil || err3 != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
		return
	}

	sheet, err := h.store.GetSafesheetBySite(r.Context(), site)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "safesheet not found for site"})
			return
		}
		h.logger.Error("load safesheet", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	assigned := pgtype.Timestamptz{}
	if req.AssignedDate != "" {
		t, ok := parseDateParam(req.AssignedDate, loc)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "assigned_date must be YYYY-MM-DD"})
			return
		}
		assigned = pgtype.Timestamptz{Time: t, Valid: true}
	}

	_, err = h.store.CreateSafesheetEntry(r.Context(), database.CreateSafesheetEntryParams{
		SafesheetID:     sheet.ID,
		EntryDate:       date,
		AssignedDate:    assigned,
		Description:     req.Description,
		CashIn:          cashIn,
		CashExpenseOut:  expenseOut,
		CashDepositBank: depositBank,
		Photo:           textOrNull(req.Photo),
	})
	if err != nil {
		h.logger.Error("create entry", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.writeFullLedger(w, r, sheet)
}

// UpdateEntry merges the provided fields into one entry and returns
// the recomputed ledger. Amounts and dates of earlier entries are
// untouched, but every later running balance shifts, which is why the
// whole ledger is recomputed and returned.
func (h *SafesheetHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid entry ID"})
		return
	}

	var req updateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	sheet, err := h.store.GetSafesheetBySite(r.Context(), site)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "safesheet not found for site"})
			return
		}
		h.logger.Error("load safesheet", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	arg := database.UpdateSafesheetEntryParams{ID: entryID, SafesheetID: sheet.ID}
	if req.Description != nil {
		arg.Description = pgtype.Text{String: *req.Description, Valid: true}
	}
	if req.Photo != nil {
		arg.Photo = pgtype.Text{String: *req.Photo, Valid: true}
	}
	loc := h.siteLocation(r.Context(), site)
	if req.AssignedDate != nil {
		t, ok := parseDateParam(*req.AssignedDate, loc)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "assigned_date must be YYYY-MM-DD"})
			return
		}
		arg.AssignedDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	for _, f := range []struct {
		in  *string
		out *pgtype.Numeric
	}{
		{req.CashIn, &arg.CashIn},
		{req.CashExpenseOut, &arg.CashExpenseOut},
		{req.CashDepositBank, &arg.CashDepositBank},
	} {
		if f.in == nil {
			continue
		}
		n, err := parseAmount(*f.in)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
			return
		}
		*f.out = n
	}

	if _, err := h.store.UpdateSafesheetEntry(r.Context(), arg); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "entry not found"})
			return
		}
		h.logger.Error("update entry", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.writeFullLedger(w, r, sheet)
}

// --- Internals ---

// loadLedger fetches the sheet, its entries, and the site's location,
// writing the error response itself when something is off.
func (h *SafesheetHandler) loadLedger(w http.ResponseWriter, r *http.Request, site string) (database.Safesheet, []ledger.Entry, *time.Location, bool) {
	sheet, err := h.store.GetSafesheetBySite(r.Context(), site)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "safesheet not found for site"})
			return database.Safesheet{}, nil, nil, false
		}
		h.logger.Error("load safesheet", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return database.Safesheet{}, nil, nil, false
	}

	rows, err := h.store.ListSafesheetEntries(r.Context(), sheet.ID)
	if err != nil {
		h.logger.Error("list entries", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return database.Safesheet{}, nil, nil, false
	}

	return sheet, service.EntriesFromRows(rows), h.siteLocation(r.Context(), site), true
}

func (h *SafesheetHandler) writeFullLedger(w http.ResponseWriter, r *http.Request, sheet database.Safesheet) {
	rows, err := h.store.ListSafesheetEntries(r.Context(), sheet.ID)
	if err != nil {
		h.logger.Error("list entries", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	computed := ledger.Compute(service.NumericToDecimal(sheet.InitialBalance), service.EntriesFromRows(rows), ledger.SortByDate)
	resp := ledgerResponse{
		Site:           sheet.Site,
		InitialBalance: numericToString(sheet.InitialBalance),
		Entries:        make([]entryResponse, len(computed)),
	}
	for i, e := range computed {
		resp.Entries[i] = toEntryResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

// siteLocation resolves the site's configured timezone, falling back
// to UTC for unknown sites or bad zone names.
func (h *SafesheetHandler) siteLocation(ctx context.Context, site string) *time.Location {
	s, err := h.store.GetSite(ctx, site)
	if err != nil {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
