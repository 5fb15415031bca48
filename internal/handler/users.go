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
	"golang.org/x/crypto/bcrypt"

	"github.com/Gen7Fuel/thehub-sub000/internal/database"
	"github.com/Gen7Fuel/thehub-sub000/internal/middleware"
	"github.com/Gen7Fuel/thehub-sub000/internal/permissions"
)

// UserStore defines the database methods needed by user handlers.
type UserStore interface {
	ListUsersBySite(ctx context.Context, site string) ([]database.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
	CreateUser(ctx context.Context, arg database.CreateUserParams) (database.User, error)
	UpdateUser(ctx context.Context, arg database.UpdateUserParams) (database.User, error)
	SetUserOverrides(ctx context.Context, arg database.SetUserOverridesParams) (database.User, error)
	DeactivateUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	GetRole(ctx context.Context, id uuid.UUID) (database.Role, error)
	GetRoleByName(ctx context.Context, name string) (database.Role, error)
	GetPermissionRegistry(ctx context.Context) (database.PermissionRegistry, error)
	CreateAuditLog(ctx context.Context, arg database.CreateAuditLogParams) (database.AuditLog, error)
}

// TreeInvalidator drops cached effective permission trees after a
// role or override change.
type TreeInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...uuid.UUID)
}

type UserHandler struct {
	store       UserStore
	invalidator TreeInvalidator
	logger      *zap.Logger
}

func NewUserHandler(store UserStore, invalidator TreeInvalidator, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{store: store, invalidator: invalidator, logger: logger}
}

// RegisterRoutes registers user management endpoints. Admin-gated at
// the router. Mounted site-scoped: /sites/{site}/users
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Put("/{id}/permissions", h.SetPermissions)
	r.Delete("/{id}", h.Deactivate)
}

// --- Request / Response types ---

type createUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type userDetailResponse struct {
	ID        uuid.UUID          `json:"id"`
	Site      string             `json:"site"`
	Email     string             `json:"email"`
	FullName  string             `json:"full_name"`
	Role      string             `json:"role"`
	Overrides []permissions.Node `json:"overrides"`
	IsActive  bool               `json:"is_active"`
	CreatedAt time.Time          `json:"created_at"`
}

func (h *UserHandler) toDetailResponse(ctx context.Context, u database.User) userDetailResponse {
	resp := userDetailResponse{
		ID:        u.ID,
		Site:      u.Site,
		Email:     u.Email,
		FullName:  u.FullName,
		Overrides: []permissions.Node{},
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
	if role, err := h.store.GetRole(ctx, u.RoleID); err == nil {
		resp.Role = role.Name
	}
	if len(u.CustomPermissions) > 0 {
		if err := json.Unmarshal(u.CustomPermissions, &resp.Overrides); err != nil {
			h.logger.Warn("bad overrides json", zap.String("user", u.ID.String()), zap.Error(err))
		}
	}
	return resp
}

// --- Handlers ---

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	users, err := h.store.ListUsersBySite(r.Context(), site)
	if err != nil {
		h.logger.Error("list users", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	resp := make([]userDetailResponse, len(users))
	for i, u := range users {
		resp[i] = h.toDetailResponse(r.Context(), u)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.toDetailResponse(r.Context(), user))
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Email == "" || req.FullName == "" || req.Role == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email, full_name, and role are required"})
		return
	}
	if len(req.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
		return
	}

	role, err := h.store.GetRoleByName(r.Context(), req.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown role"})
			return
		}
		h.logger.Error("get role", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	user, err := h.store.CreateUser(r.Context(), database.CreateUserParams{
		Site:              site,
		Email:             req.Email,
		FullName:          req.FullName,
		HashedPassword:    string(hashed),
		RoleID:            role.ID,
		CustomPermissions: []byte("[]"),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "email already registered"})
			return
		}
		h.logger.Error("create user", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, h.toDetailResponse(r.Context(), user))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	fullName := user.FullName
	if req.FullName != "" {
		fullName = req.FullName
	}
	roleID := user.RoleID
	if req.Role != "" {
		role, err := h.store.GetRoleByName(r.Context(), req.Role)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown role"})
				return
			}
			h.logger.Error("get role", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		roleID = role.ID
	}

	updated, err := h.store.UpdateUser(r.Context(), database.UpdateUserParams{
		ID:       user.ID,
		FullName: fullName,
		RoleID:   roleID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		h.logger.Error("update user", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if roleID != user.RoleID {
		h.invalidator.Invalidate(r.Context(), user.ID)
		h.audit(r.Context(), "user.role_change", updated.ID)
	}

	writeJSON(w, http.StatusOK, h.toDetailResponse(r.Context(), updated))
}

// SetPermissions takes the user's full resolved tree as edited by an
// admin, diffs it against the role defaults, and stores only the
// overrides. Persisting the diff instead of the whole tree keeps role
// edits flowing through to every user who never diverged.
func (h *UserHandler) SetPermissions(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var resolved []permissions.Node
	if err := json.NewDecoder(r.Body).Decode(&resolved); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid permission tree"})
		return
	}

	registry, err := h.store.GetPermissionRegistry(r.Context())
	if err != nil {
		h.logger.Error("get permission registry", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	role, err := h.store.GetRole(r.Context(), user.RoleID)
	if err != nil {
		h.logger.Error("get role", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	var template, roleTree []permissions.Node
	if err := json.Unmarshal(registry.Tree, &template); err != nil {
		h.logger.Error("bad registry json", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if len(role.Permissions) > 0 {
		if err := json.Unmarshal(role.Permissions, &roleTree); err != nil {
			h.logger.Error("bad role permissions json", zap.String("role", role.Name), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}

	defaults := permissions.Merge(template, roleTree)
	overrides := permissions.Overrides(defaults, permissions.Merge(template, resolved))

	raw, err := json.Marshal(overrides)
	if err != nil {
		h.logger.Error("marshal overrides", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	updated, err := h.store.SetUserOverrides(r.Context(), database.SetUserOverridesParams{
		ID:                user.ID,
		CustomPermissions: raw,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		h.logger.Error("set overrides", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.invalidator.Invalidate(r.Context(), user.ID)
	h.audit(r.Context(), "user.permissions_change", updated.ID)

	writeJSON(w, http.StatusOK, h.toDetailResponse(r.Context(), updated))
}

func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	user, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if _, err := h.store.DeactivateUser(r.Context(), user.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		h.logger.Error("deactivate user", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	h.invalidator.Invalidate(r.Context(), user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// --- Internals ---

func (h *UserHandler) lookup(w http.ResponseWriter, r *http.Request) (database.User, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user ID"})
		return database.User{}, false
	}

	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return database.User{}, false
		}
		h.logger.Error("get user", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return database.User{}, false
	}

	site := chi.URLParam(r, "site")
	if site != "" && user.Site != site {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return database.User{}, false
	}
	return user, true
}

func (h *UserHandler) audit(ctx context.Context, action string, subject uuid.UUID) {
	claims := middleware.ClaimsFromContext(ctx)
	if claims == nil {
		return
	}
	detail, _ := json.Marshal(map[string]string{"user_id": subject.String()})
	if _, err := h.store.CreateAuditLog(ctx, database.CreateAuditLogParams{
		ActorID: claims.UserID,
		Action:  action,
		Entity:  "user",
		Detail:  detail,
	}); err != nil {
		h.logger.Warn("audit log", zap.Error(err))
	}
}
