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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Gen7Fuel/thehub-sub000/internal/database"
	"github.com/Gen7Fuel/thehub-sub000/internal/enum"
	"github.com/Gen7Fuel/thehub-sub000/internal/ledger"
	"github.com/Gen7Fuel/thehub-sub000/internal/middleware"
	"github.com/Gen7Fuel/thehub-sub000/internal/service"
	"github.com/Gen7Fuel/thehub-sub000/internal/tasks"
)

// PayableStore defines the database methods needed by payable handlers.
type PayableStore interface {
	GetSite(ctx context.Context, code string) (database.Site, error)
	GetVendor(ctx context.Context, id uuid.UUID) (database.Vendor, error)
	ListPayables(ctx context.Context, arg database.ListPayablesParams) ([]database.Payable, error)
	GetPayable(ctx context.Context, id uuid.UUID) (database.Payable, error)
	CreatePayable(ctx context.Context, arg database.CreatePayableParams) (database.Payable, error)
	CreateAuditLog(ctx context.Context, arg database.CreateAuditLogParams) (database.AuditLog, error)
}

// PayoutCreator posts the "Payout - {vendor}" entry on the site's
// ledger when a payable is settled from the safe.
type PayoutCreator interface {
	CreateSafePayout(ctx context.Context, site, vendorName string, day time.Time, amount decimal.Decimal) error
}

type PayableHandler struct {
	store  PayableStore
	payout PayoutCreator
	queue  *tasks.Queue
	logger *zap.Logger
}

func NewPayableHandler(store PayableStore, payout PayoutCreator, queue *tasks.Queue, logger *zap.Logger) *PayableHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayableHandler{store: store, payout: payout, queue: queue, logger: logger}
}

// RegisterRoutes registers payable endpoints. Mounted site-scoped:
// /sites/{site}/payables
func (h *PayableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
}

type createPayableRequest struct {
	VendorID      string `json:"vendor_id"`
	InvoiceNumber string `json:"invoice_number"`
	Amount        string `json:"amount"`
	Method        string `json:"method"`
	PayableDate   string `json:"payable_date"`
}

type payableResponse struct {
	ID            uuid.UUID `json:"id"`
	Site          string    `json:"site"`
	VendorID      uuid.UUID `json:"vendor_id"`
	InvoiceNumber *string   `json:"invoice_number"`
	Amount        string    `json:"amount"`
	Method        string    `json:"method"`
	PayableDate   string    `json:"payable_date"`
	CreatedAt     time.Time `json:"created_at"`
}

func toPayableResponse(p database.Payable) payableResponse {
	resp := payableResponse{
		ID:          p.ID,
		Site:        p.Site,
		VendorID:    p.VendorID,
		Amount:      numericToString(p.Amount),
		Method:      p.Method,
		PayableDate: p.PayableDate.Format("2006-01-02"),
		CreatedAt:   p.CreatedAt,
	}
	if p.InvoiceNumber.Valid {
		resp.InvoiceNumber = &p.InvoiceNumber.String
	}
	return resp
}

func validPayableMethod(m string) bool {
	switch m {
	case enum.PayableMethodCash, enum.PayableMethodSafe, enum.PayableMethodCheque, enum.PayableMethodEFT:
		return true
	}
	return false
}

func (h *PayableHandler) List(w http.ResponseWriter, r *http.Request) {
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

	payables, err := h.store.ListPayables(r.Context(), database.ListPayablesParams{
		Site: site,
		From: from,
		To:   to,
	})
	if err != nil {
		h.logger.Error("list payables", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]payableResponse, len(payables))
	for i, p := range payables {
		resp[i] = toPayableResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PayableHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payable ID"})
		return
	}
	payable, err := h.store.GetPayable(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "payable not found"})
			return
		}
		h.logger.Error("get payable", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toPayableResponse(payable))
}

// Create records a payable. Method "SAFE" additionally posts the
// payout ledger entry through the task queue: a ledger failure is
// retried and logged but never blocks the payable itself.
func (h *PayableHandler) Create(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	var req createPayableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid vendor ID"})
		return
	}
	if !validPayableMethod(req.Method) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "method must be one of CASH, SAFE, CHEQUE, EFT"})
		return
	}
	day, ok := parseDateParam(req.PayableDate, time.UTC)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "payable_date must be YYYY-MM-DD"})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
		return
	}

	vendor, err := h.store.GetVendor(r.Context(), vendorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "vendor not found"})
			return
		}
		h.logger.Error("get vendor", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	num, err := service.DecimalToNumeric(amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
		return
	}

	payable, err := h.store.CreatePayable(r.Context(), database.CreatePayableParams{
		Site:          site,
		VendorID:      vendor.ID,
		InvoiceNumber: textOrNull(req.InvoiceNumber),
		Amount:        num,
		Method:        req.Method,
		PayableDate:   day,
	})
	if err != nil {
		h.logger.Error("create payable", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		detail, _ := json.Marshal(map[string]string{
			"payable_id": payable.ID.String(),
			"vendor":     vendor.Name,
			"amount":     amount.StringFixed(2),
			"method":     payable.Method,
		})
		if _, err := h.store.CreateAuditLog(r.Context(), database.CreateAuditLogParams{
			ActorID: claims.UserID,
			Action:  "payable.create",
			Entity:  "payable",
			Detail:  detail,
		}); err != nil {
			h.logger.Warn("audit log", zap.Error(err))
		}
	}

	if payable.Method == enum.PayableMethodSafe {
		vendorName := vendor.Name
		h.queue.Enqueue(tasks.Task{
			Name: "safe-payout-entry",
			Run: func(ctx context.Context) error {
				return h.payout.CreateSafePayout(ctx, site, vendorName, day, amount)
			},
		})
	}

	writeJSON(w, http.StatusCreated, toPayableResponse(payable))
}
