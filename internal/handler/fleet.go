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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Gen7Fuel/thehub-sub000/internal/database"
	"github.com/Gen7Fuel/thehub-sub000/internal/service"
)

// FleetStore defines the database methods needed by fleet card
// handlers.
type FleetStore interface {
	ListFleetCards(ctx context.Context, site string) ([]database.FleetCard, error)
	GetFleetCardByNumber(ctx context.Context, cardNumber string) (database.FleetCard, error)
	CreateFleetCard(ctx context.Context, arg database.CreateFleetCardParams) (database.FleetCard, error)
	AdjustFleetCardBalance(ctx context.Context, arg database.AdjustFleetCardBalanceParams) (database.FleetCard, error)
	DeactivateFleetCard(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

type FleetHandler struct {
	store  FleetStore
	logger *zap.Logger
}

func NewFleetHandler(store FleetStore, logger *zap.Logger) *FleetHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FleetHandler{store: store, logger: logger}
}

// RegisterRoutes registers fleet card endpoints. Mounted site-scoped:
// /sites/{site}/fleet-cards
func (h *FleetHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{number}", h.GetByNumber)
	r.Post("/{number}/adjustments", h.Adjust)
	r.Delete("/{number}", h.Deactivate)
}

type createFleetCardRequest struct {
	CardNumber   string `json:"card_number"`
	CustomerName string `json:"customer_name"`
	Balance      string `json:"balance"`
}

type adjustFleetCardRequest struct {
	// Amount is signed: positive tops up, negative draws down.
	Amount string `json:"amount"`
}

type fleetCardResponse struct {
	ID           uuid.UUID `json:"id"`
	CardNumber   string    `json:"card_number"`
	CustomerName string    `json:"customer_name"`
	Site         string    `json:"site"`
	Balance      string    `json:"balance"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func toFleetCardResponse(c database.FleetCard) fleetCardResponse {
	return fleetCardResponse{
		ID:           c.ID,
		CardNumber:   c.CardNumber,
		CustomerName: c.CustomerName,
		Site:         c.Site,
		Balance:      numericToString(c.Balance),
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt,
	}
}

func (h *FleetHandler) List(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	cards, err := h.store.ListFleetCards(r.Context(), site)
	if err != nil {
		h.logger.Error("list fleet cards", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]fleetCardResponse, len(cards))
	for i, c := range cards {
		resp[i] = toFleetCardResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *FleetHandler) Create(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	var req createFleetCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.CardNumber == "" || req.CustomerName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "card_number and customer_name are required"})
		return
	}
	balance, err := parseAmount(req.Balance)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid balance"})
		return
	}

	card, err := h.store.CreateFleetCard(r.Context(), database.CreateFleetCardParams{
		CardNumber:   req.CardNumber,
		CustomerName: req.CustomerName,
		Site:         site,
		Balance:      balance,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "card number already exists"})
			return
		}
		h.logger.Error("create fleet card", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toFleetCardResponse(card))
}

func (h *FleetHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	card, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toFleetCardResponse(card))
}

// Adjust applies a signed prepaid balance change. The update is a
// single relative SQL statement, so concurrent adjustments never lose
// each other.
func (h *FleetHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	card, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req adjustFleetCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be a non-zero number"})
		return
	}
	num, err := service.DecimalToNumeric(amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
		return
	}

	updated, err := h.store.AdjustFleetCardBalance(r.Context(), database.AdjustFleetCardBalanceParams{
		ID:     card.ID,
		Amount: num,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "card not found"})
			return
		}
		h.logger.Error("adjust fleet card", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toFleetCardResponse(updated))
}

func (h *FleetHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	card, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if _, err := h.store.DeactivateFleetCard(r.Context(), card.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "card not found"})
			return
		}
		h.logger.Error("deactivate fleet card", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FleetHandler) lookup(w http.ResponseWriter, r *http.Request) (database.FleetCard, bool) {
	site := chi.URLParam(r, "site")
	number := chi.URLParam(r, "number")

	card, err := h.store.GetFleetCardByNumber(r.Context(), number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "card not found"})
			return database.FleetCard{}, false
		}
		h.logger.Error("get fleet card", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return database.FleetCard{}, false
	}
	if card.Site != site {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "card not found"})
		return database.FleetCard{}, false
	}
	return card, true
}
