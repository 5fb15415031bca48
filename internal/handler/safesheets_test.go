package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Gen7Fuel/thehub-sub000/internal/database"
	"github.com/Gen7Fuel/thehub-sub000/internal/handler"
)

// --- Mock store ---

type mockSafesheetStore struct {
	sites   map[string]database.Site      // keyed by site code
	sheets  map[string]database.Safesheet // keyed by site code
	entries map[uuid.UUID][]database.SafesheetEntry
	seq     int // created-at tiebreaker for same-day entries
}

func newMockSafesheetStore() *mockSafesheetStore {
	return &mockSafesheetStore{
		sites:   make(map[string]database.Site),
		sheets:  make(map[string]database.Safesheet),
		entries: make(map[uuid.UUID][]database.SafesheetEntry),
	}
}

func (m *mockSafesheetStore) GetSite(_ context.Context, code string) (database.Site, error) {
	s, ok := m.sites[code]
	if !ok {
		return database.Site{}, pgx.ErrNoRows
	}
	return s, nil
}

func (m *mockSafesheetStore) GetSafesheetBySite(_ context.Context, site string) (database.Safesheet, error) {
	s, ok := m.sheets[site]
	if !ok {
		return database.Safesheet{}, pgx.ErrNoRows
	}
	return s, nil
}

func (m *mockSafesheetStore) CreateSafesheet(_ context.Context, arg database.CreateSafesheetParams) (database.Safesheet, error) {
	if _, exists := m.sheets[arg.Site]; exists {
		return database.Safesheet{}, &pgconn.PgError{Code: "23505"}
	}
	s := database.Safesheet{
		ID:             uuid.New(),
		Site:           arg.Site,
		InitialBalance: arg.InitialBalance,
		CreatedAt:      time.Now(),
	}
	m.sheets[arg.Site] = s
	return s, nil
}

func (m *mockSafesheetStore) ListSafesheetEntries(_ context.Context, safesheetID uuid.UUID) ([]database.SafesheetEntry, error) {
	return m.entries[safesheetID], nil
}

func (m *mockSafesheetStore) CreateSafesheetEntry(_ context.Context, arg database.CreateSafesheetEntryParams) (database.SafesheetEntry, error) {
	m.seq++
	e := database.SafesheetEntry{
		ID:              uuid.New(),
		SafesheetID:     arg.SafesheetID,
		EntryDate:       arg.EntryDate,
		AssignedDate:    arg.AssignedDate,
		Description:     arg.Description,
		CashIn:          arg.CashIn,
		CashExpenseOut:  arg.CashExpenseOut,
		CashDepositBank: arg.CashDepositBank,
		Photo:           arg.Photo,
		CreatedAt:       time.Date(2026, 1, 1, 0, 0, 0, m.seq, time.UTC),
		UpdatedAt:       time.Now(),
	}
	m.entries[arg.SafesheetID] = append(m.entries[arg.SafesheetID], e)
	return e, nil
}

func (m *mockSafesheetStore) UpdateSafesheetEntry(_ context.Context, arg database.UpdateSafesheetEntryParams) (database.SafesheetEntry, error) {
	list := m.entries[arg.SafesheetID]
	for i, e := range list {
		if e.ID != arg.ID {
			continue
		}
		if arg.Description.Valid {
			e.Description = arg.Description.String
		}
		if arg.AssignedDate.Valid {
			e.AssignedDate = arg.AssignedDate
		}
		if arg.CashIn.Valid {
			e.CashIn = arg.CashIn
		}
		if arg.CashExpenseOut.Valid {
			e.CashExpenseOut = arg.CashExpenseOut
		}
		if arg.CashDepositBank.Valid {
			e.CashDepositBank = arg.CashDepositBank
		}
		if arg.Photo.Valid {
			e.Photo = arg.Photo
		}
		e.UpdatedAt = time.Now()
		list[i] = e
		return e, nil
	}
	return database.SafesheetEntry{}, pgx.ErrNoRows
}

// --- Helpers ---

func setupSafesheetRouter(store *mockSafesheetStore) *chi.Mux {
	h := handler.NewSafesheetHandler(store, nil)
	r := chi.NewRouter()
	r.Route("/sites/{site}/safesheet", h.RegisterRoutes)
	return r
}

func (m *mockSafesheetStore) seedSheet(t *testing.T, site, initial string) database.Safesheet {
	t.Helper()
	m.sites[site] = database.Site{Code: site, Name: site, Timezone: "UTC"}
	s := database.Safesheet{
		ID:             uuid.New(),
		Site:           site,
		InitialBalance: numeric(t, initial),
		CreatedAt:      time.Now(),
	}
	m.sheets[site] = s
	return s
}

func (m *mockSafesheetStore) seedEntry(t *testing.T, sheetID uuid.UUID, date, in, out, bank string) database.SafesheetEntry {
	t.Helper()
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("parse date %q: %v", date, err)
	}
	m.seq++
	e := database.SafesheetEntry{
		ID:              uuid.New(),
		SafesheetID:     sheetID,
		EntryDate:       day,
		Description:     "seeded",
		CashIn:          numeric(t, in),
		CashExpenseOut:  numeric(t, out),
		CashDepositBank: numeric(t, bank),
		CreatedAt:       time.Date(2026, 1, 1, 0, 0, 0, m.seq, time.UTC),
		UpdatedAt:       time.Now(),
	}
	m.entries[sheetID] = append(m.entries[sheetID], e)
	return e
}

// --- Create tests ---

func TestSafesheetCreate_Valid(t *testing.T) {
	store := newMockSafesheetStore()
	router := setupSafesheetRouter(store)

	rr := doRequest(t, router, "POST", "/sites/RANKIN/safesheet", map[string]interface{}{
		"initial_balance": "500.00",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["site"] != "RANKIN" {
		t.Errorf("site: got %v, want RANKIN", resp["site"])
	}
	if resp["initial_balance"] != "500.00" {
		t.Errorf("initial_balance: got %v, want 500.00", resp["initial_balance"])
	}
}

func TestSafesheetCreate_Duplicate(t *testing.T) {
	store := newMockSafesheetStore()
	store.seedSheet(t, "RANKIN", "500.00")
	router := setupSafesheetRouter(store)

	rr := doRequest(t, router, "POST", "/sites/RANKIN/safesheet", map[string]interface{}{
		"initial_balance": "100.00",
	})

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
}

func TestSafesheetCreate_InvalidBalance(t *testing.T) {
	store := newMockSafesheetStore()
	router := setupSafesheetRouter(store)

	rr := doRequest(t, router, "POST", "/sites/RANKIN/safesheet", map[string]interface{}{
		"initial_balance": "not-a-number",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Current balance tests ---

func TestSafesheetCurrent_RunningBalance(t *testing.T) {
	store := newMockSafesheetStore()
	sheet := store.seedSheet(t, "RANKIN", "100.00")
	store.seedEntry(t, sheet.ID, "2026-03-01", "50.00", "0.00", "0.00")
	store.seedEntry(t, sheet.ID, "2026-03-02", "0.00", "20.00", "0.00")
	store.seedEntry(t, sheet.ID, "2026-03-03", "0.00", "0.00", "30.00")

	router := setupSafesheetRouter(store)
	rr := doRequest(t, router, "GET", "/sites/RANKIN/safesheet/current", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	// 100 + 50 - 20 - 30
	if resp["cash_on_hand"] != "100.00" {
		t.Errorf("cash_on_hand: got %v, want 100.00", resp["cash_on_hand"])
	}
}

func TestSafesheetCurrent_NoSheet(t *testing.T) {
	store := newMockSafesheetStore()
	router := setupSafesheetRouter(store)

	rr := doRequest(t, router, "GET", "/sites/RANKIN/safesheet/current", nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- Range tests ---

func TestSafesheetRange_FiltersButKeepsWholeLedgerBalances(t *testing.T) {
	store := newMockSafesheetStore()
	sheet := store.seedSheet(t, "RANKIN", "100.00")
	store.seedEntry(t, sheet.ID, "2026-03-01", "50.00", "0.00", "0.00") // balance 150
	store.seedEntry(t, sheet.ID, "2026-03-05", "0.00", "20.00", "0.00") // balance 130
	store.seedEntry(t, sheet.ID, "2026-03-10", "0.00", "0.00", "30.00") // balance 100

	router := setupSafesheetRouter(store)
	rr := doRequest(t, router, "GET", "/sites/RANKIN/safesheet?from=2026-03-04&to=2026-03-06", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	entries := resp["entries"].([]interface{})
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry in window, got %d", len(entries))
	}
	entry := entries[0].(map[string]interface{})
	if entry["date"] != "2026-03-05" {
		t.Errorf("date: got %v, want 2026-03-05", entry["date"])
	}
	// Balance reflects the position in the full ledger, not the window.
	if entry["cash_on_hand_safe"] != "130.00" {
		t.Errorf("cash_on_hand_safe: got %v, want 130.00", entry["cash_on_hand_safe"])
	}
}

func TestSafesheetRange_BadDatesFallBackToDefaultWindow(t *testing.T) {
	store := newMockSafesheetStore()
	sheet := store.seedSheet(t, "RANKIN", "100.00")
	// Entry from long ago should be outside the trailing-week default.
	store.seedEntry(t, sheet.ID, "2020-01-01", "50.00", "0.00", "0.00")

	router := setupSafesheetRouter(store)
	rr := doRequest(t, router, "GET", "/sites/RANKIN/safesheet?from=garbage&to=2026-03-06", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	entries := resp["entries"].([]interface{})
	if len(entries) != 0 {
		t.Errorf("expected no entries in default trailing window, got %d", len(entries))
	}
}

// --- Add entry tests ---

func TestSafesheetAddEntry_ReturnsRecomputedLedger(t *testing.T) {
	store := newMockSafesheetStore()
	sheet := store.seedSheet(t, "RANKIN", "100.00")
	store.seedEntry(t, sheet.ID, "2026-03-01", "50.00", "0.00", "0.00")

	router := setupSafesheetRouter(store)
	rr := doRequest(t, router, "POST", "/sites/RANKIN/safesheet/entries", map[string]interface{}{
		"date":              "2026-03-02",
		"description":       "Till float",
		"cash_in":           "0.00",
		"cash_expense_out":  "25.00",
		"cash_deposit_bank": "0.00",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	entries := resp["entries"].([]interface{})
	if len(entries) != 2 {
		t.Fatalf("expected full ledger with 2 entries, got %d", len(entries))
	}
	last := entries[1].(map[string]interface{})
	if last["description"] != "Till float" {
		t.Errorf("description: got %v, want 'Till float'", last["description"])
	}
	if last["cash_on_hand_safe"] != "125.00" {
		t.Errorf("cash_on_hand_safe: got %v, want 125.00", last["cash_on_hand_safe"])
	}
}

func TestSafesheetAddEntry_MissingDate(t *testing.T) {
	store := newMockSafesheetStore()
	store.seedSheet(t, "RANKIN", "100.00")
	router := setupSafesheetRouter(store)

	rr := doRequest(t, router, "POST", "/sites/RANKIN/safesheet/entries", map[string]interface{}{
		"description": "No date",
		"cash_in":     "10.00",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSafesheetAddEntry_InvalidAmount(t *testing.T) {
	store := newMockSafesheetStore()
	store.seedSheet(t, "RANKIN", "100.00")
	router := setupSafesheetRouter(store)

	rr := doRequest(t, router, "POST", "/sites/RANKIN/safesheet/entries", map[string]interface{}{
		"date":    "2026-03-02",
		"cash_in": "ten dollars",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSafesheetAddEntry_NoSheet(t *testing.T) {
	store := newMockSafesheetStore()
	router := setupSafesheetRouter(store)

	rr := doRequest(t, router, "POST", "/sites/RANKIN/safesheet/entries", map[string]interface{}{
		"date":    "2026-03-02",
		"cash_in": "10.00",
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- Update entry tests ---

func TestSafesheetUpdateEntry_ShiftsLaterBalances(t *testing.T) {
	store := newMockSafesheetStore()
	sheet := store.seedSheet(t, "RANKIN", "100.00")
	first := store.seedEntry(t, sheet.ID, "2026-03-01", "50.00", "0.00", "0.00")  // 150
	store.seedEntry(t, sheet.ID, "2026-03-02", "0.00", "20.00", "0.00")          // 130

	router := setupSafesheetRouter(store)
	rr := doRequest(t, router, "PUT", "/sites/RANKIN/safesheet/entries/"+first.ID.String(), map[string]interface{}{
		"cash_in": "80.00",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	entries := resp["entries"].([]interface{})
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if b := entries[0].(map[string]interface{})["cash_on_hand_safe"]; b != "180.00" {
		t.Errorf("first balance: got %v, want 180.00", b)
	}
	if b := entries[1].(map[string]interface{})["cash_on_hand_safe"]; b != "160.00" {
		t.Errorf("second balance: got %v, want 160.00", b)
	}
}

func TestSafesheetUpdateEntry_PartialMergeKeepsOtherFields(t *testing.T) {
	store := newMockSafesheetStore()
	sheet := store.seedSheet(t, "RANKIN", "100.00")
	entry := store.seedEntry(t, sheet.ID, "2026-03-01", "50.00", "0.00", "0.00")

	router := setupSafesheetRouter(store)
	rr := doRequest(t, router, "PUT", "/sites/RANKIN/safesheet/entries/"+entry.ID.String(), map[string]interface{}{
		"description": "corrected memo",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	e := resp["entries"].([]interface{})[0].(map[string]interface{})
	if e["description"] != "corrected memo" {
		t.Errorf("description: got %v, want 'corrected memo'", e["description"])
	}
	if e["cash_in"] != "50.00" {
		t.Errorf("cash_in: got %v, want 50.00 (untouched)", e["cash_in"])
	}
}

func TestSafesheetUpdateEntry_NotFound(t *testing.T) {
	store := newMockSafesheetStore()
	store.seedSheet(t, "RANKIN", "100.00")
	router := setupSafesheetRouter(store)

	rr := doRequest(t, router, "PUT", "/sites/RANKIN/safesheet/entries/"+uuid.NewString(), map[string]interface{}{
		"description": "nope",
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestSafesheetUpdateEntry_InvalidID(t *testing.T) {
	store := newMockSafesheetStore()
	store.seedSheet(t, "RANKIN", "100.00")
	router := setupSafesheetRouter(store)

	rr := doRequest(t, router, "PUT", "/sites/RANKIN/safesheet/entries/not-a-uuid", map[string]interface{}{
		"description": "nope",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Daily balances tests ---

func TestSafesheetDailyBalances_CarriesForward(t *testing.T) {
	store := newMockSafesheetStore()
	sheet := store.seedSheet(t, "RANKIN", "100.00")
	store.seedEntry(t, sheet.ID, "2026-03-01", "50.00", "0.00", "0.00")
	// 2026-03-02 has no entries; balance should carry forward.
	store.seedEntry(t, sheet.ID, "2026-03-03", "0.00", "0.00", "40.00")

	router := setupSafesheetRouter(store)
	rr := doRequest(t, router, "GET", "/sites/RANKIN/safesheet/daily-balances?from=2026-03-01&to=2026-03-03", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	days := decodeListResponse(t, rr)
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	if days[0]["balance"] != "150.00" || days[0]["entry_count"] != float64(1) {
		t.Errorf("day 1: got balance %v count %v, want 150.00 / 1", days[0]["balance"], days[0]["entry_count"])
	}
	if days[1]["balance"] != "150.00" || days[1]["entry_count"] != float64(0) {
		t.Errorf("day 2: got balance %v count %v, want carried 150.00 / 0", days[1]["balance"], days[1]["entry_count"])
	}
	if days[2]["balance"] != "110.00" {
		t.Errorf("day 3: got balance %v, want 110.00", days[2]["balance"])
	}
	if days[2]["deposit_total"] != "40.00" {
		t.Errorf("day 3 deposit_total: got %v, want 40.00", days[2]["deposit_total"])
	}
}
