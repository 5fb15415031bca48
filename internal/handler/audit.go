package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Gen7Fuel/thehub-sub000/internal/database"
)

const defaultAuditLimit = 100

// AuditStore defines the database methods needed by the audit log
// handler.
type AuditStore interface {
	ListAuditLogs(ctx context.Context, limit int32) ([]database.AuditLog, error)
}

type AuditHandler struct {
	store  AuditStore
	logger *zap.Logger
}

func NewAuditHandler(store AuditStore, logger *zap.Logger) *AuditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditHandler{store: store, logger: logger}
}

func (h *AuditHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

type auditLogResponse struct {
	ID        uuid.UUID       `json:"id"`
	ActorID   uuid.UUID       `json:"actor_id"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	Detail    json.RawMessage `json:"detail"`
	CreatedAt time.Time       `json:"created_at"`
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 1000 {
		limit = n
	}

	logs, err := h.store.ListAuditLogs(r.Context(), int32(limit))
	if err != nil {
		h.logger.Error("list audit logs", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]auditLogResponse, len(logs))
	for i, l := range logs {
		resp[i] = auditLogResponse{
			ID:        l.ID,
			ActorID:   l.ActorID,
			Action:    l.Action,
			Entity:    l.Entity,
			Detail:    l.Detail,
			CreatedAt: l.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
