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
	"go.uber.org/zap"

	"github.com/Gen7Fuel/thehub-sub000/internal/database"
)

// VendorStore defines the database methods needed by vendor handlers.
type VendorStore interface {
	ListVendors(ctx context.Context) ([]database.Vendor, error)
	GetVendor(ctx context.Context, id uuid.UUID) (database.Vendor, error)
	CreateVendor(ctx context.Context, arg database.CreateVendorParams) (database.Vendor, error)
	UpdateVendor(ctx context.Context, arg database.UpdateVendorParams) (database.Vendor, error)
	SoftDeleteVendor(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

type VendorHandler struct {
	store  VendorStore
	logger *zap.Logger
}

func NewVendorHandler(store VendorStore, logger *zap.Logger) *VendorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VendorHandler{store: store, logger: logger}
}

func (h *VendorHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type vendorRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PaymentTerms string `json:"payment_terms"`
}

type vendorResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        *string   `json:"email"`
	PaymentTerms *string   `json:"payment_terms"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func toVendorResponse(v database.Vendor) vendorResponse {
	resp := vendorResponse{
		ID:        v.ID,
		Name:      v.Name,
		IsActive:  v.IsActive,
		CreatedAt: v.CreatedAt,
	}
	if v.Email.Valid {
		resp.Email = &v.Email.String
	}
	if v.PaymentTerms.Valid {
		resp.PaymentTerms = &v.PaymentTerms.String
	}
	return resp
}

func (h *VendorHandler) List(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.store.ListVendors(r.Context())
	if err != nil {
		h.logger.Error("list vendors", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]vendorResponse, len(vendors))
	for i, v := range vendors {
		resp[i] = toVendorResponse(v)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *VendorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid vendor ID"})
		return
	}
	vendor, err := h.store.GetVendor(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "vendor not found"})
			return
		}
		h.logger.Error("get vendor", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toVendorResponse(vendor))
}

func (h *VendorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req vendorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	vendor, err := h.store.CreateVendor(r.Context(), database.CreateVendorParams{
		Name:         req.Name,
		Email:        textOrNull(req.Email),
		PaymentTerms: textOrNull(req.PaymentTerms),
	})
	if err != nil {
		h.logger.Error("create vendor", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toVendorResponse(vendor))
}

func (h *VendorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid vendor ID"})
		return
	}

	var req vendorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	vendor, err := h.store.UpdateVendor(r.Context(), database.UpdateVendorParams{
		ID:           id,
		Name:         req.Name,
		Email:        textOrNull(req.Email),
		PaymentTerms: textOrNull(req.PaymentTerms),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "vendor not found"})
			return
		}
		h.logger.Error("update vendor", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toVendorResponse(vendor))
}

// Delete soft-deletes: payables keep their vendor reference.
func (h *VendorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid vendor ID"})
		return
	}
	if _, err := h.store.SoftDeleteVendor(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "vendor not found"})
			return
		}
		h.logger.Error("delete vendor", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
