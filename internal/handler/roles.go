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
	"go.uber.org/zap"

	"github.com/Gen7Fuel/thehub-sub000/internal/database"
	"github.com/Gen7Fuel/thehub-sub000/internal/permissions"
)

// RoleStore defines the database methods needed by role and
// permission registry handlers.
type RoleStore interface {
	ListRoles(ctx context.Context) ([]database.Role, error)
	GetRole(ctx context.Context, id uuid.UUID) (database.Role, error)
	CreateRole(ctx context.Context, arg database.CreateRoleParams) (database.Role, error)
	UpdateRole(ctx context.Context, arg database.UpdateRoleParams) (database.Role, error)
	DeleteRole(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	GetPermissionRegistry(ctx context.Context) (database.PermissionRegistry, error)
	UpsertPermissionRegistry(ctx context.Context, tree []byte) (database.PermissionRegistry, error)
}

type RoleHandler struct {
	store  RoleStore
	logger *zap.Logger
}

func NewRoleHandler(store RoleStore, logger *zap.Logger) *RoleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleHandler{store: store, logger: logger}
}

// RegisterRoutes registers role endpoints. Admin-gated at the router.
func (h *RoleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// RegisterRegistryRoutes registers the permission template endpoints.
func (h *RoleHandler) RegisterRegistryRoutes(r chi.Router) {
	r.Get("/", h.GetRegistry)
	r.Put("/", h.PutRegistry)
}

// --- Request / Response types ---

type roleRequest struct {
	Name        string             `json:"name"`
	Permissions []permissions.Node `json:"permissions"`
}

type roleResponse struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	Permissions []permissions.Node `json:"permissions"`
	CreatedAt   time.Time          `json:"created_at"`
}

func (h *RoleHandler) toRoleResponse(role database.Role) roleResponse {
	resp := roleResponse{
		ID:          role.ID,
		Name:        role.Name,
		Permissions: []permissions.Node{},
		CreatedAt:   role.CreatedAt,
	}
	if len(role.Permissions) > 0 {
		if err := json.Unmarshal(role.Permissions, &resp.Permissions); err != nil {
			h.logger.Warn("bad role permissions json", zap.String("role", role.Name), zap.Error(err))
		}
	}
	return resp
}

// --- Role handlers ---

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.store.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]roleResponse, len(roles))
	for i, role := range roles {
		resp[i] = h.toRoleResponse(role)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role ID"})
		return
	}
	role, err := h.store.GetRole(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "role not found"})
			return
		}
		h.logger.Error("get role", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, h.toRoleResponse(role))
}

func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	raw, err := json.Marshal(req.Permissions)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid permission tree"})
		return
	}

	role, err := h.store.CreateRole(r.Context(), database.CreateRoleParams{
		Name:        req.Name,
		Permissions: raw,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "role name already exists"})
			return
		}
		h.logger.Error("create role", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, h.toRoleResponse(role))
}

func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role ID"})
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	raw, err := json.Marshal(req.Permissions)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid permission tree"})
		return
	}

	role, err := h.store.UpdateRole(r.Context(), database.UpdateRoleParams{
		ID:          id,
		Name:        req.Name,
		Permissions: raw,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "role not found"})
			return
		}
		h.logger.Error("update role", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, h.toRoleResponse(role))
}

func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role ID"})
		return
	}
	if _, err := h.store.DeleteRole(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "role not found"})
			return
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "role is still assigned to users"})
			return
		}
		h.logger.Error("delete role", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Registry handlers ---

// GetRegistry returns the master permission template every role and
// user tree is merged against.
func (h *RoleHandler) GetRegistry(w http.ResponseWriter, r *http.Request) {
	registry, err := h.store.GetPermissionRegistry(r.Context())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusOK, []permissions.Node{})
			return
		}
		h.logger.Error("get registry", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	var tree []permissions.Node
	if len(registry.Tree) > 0 {
		if err := json.Unmarshal(registry.Tree, &tree); err != nil {
			h.logger.Error("bad registry json", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}
	writeJSON(w, http.StatusOK, tree)
}

func (h *RoleHandler) PutRegistry(w http.ResponseWriter, r *http.Request) {
	var tree []permissions.Node
	if err := json.NewDecoder(r.Body).Decode(&tree); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid permission tree"})
		return
	}

	raw, err := json.Marshal(tree)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid permission tree"})
		return
	}

	if _, err := h.store.UpsertPermissionRegistry(r.Context(), raw); err != nil {
		h.logger.Error("upsert registry", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, tree)
}
