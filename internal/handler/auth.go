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
	"golang.org/x/crypto/bcrypt"

	"github.com/Gen7Fuel/thehub-sub000/internal/auth"
	"github.com/Gen7Fuel/thehub-sub000/internal/database"
	"github.com/Gen7Fuel/thehub-sub000/internal/middleware"
	"github.com/Gen7Fuel/thehub-sub000/internal/tasks"
)

const passwordResetTTL = time.Hour

// AuthStore defines the database methods needed by auth handlers.
type AuthStore interface {
	GetUserByEmail(ctx context.Context, email string) (database.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
	GetRole(ctx context.Context, id uuid.UUID) (database.Role, error)
	SetUserPassword(ctx context.Context, arg database.SetUserPasswordParams) error
	CreatePasswordReset(ctx context.Context, arg database.CreatePasswordResetParams) (database.PasswordReset, error)
	GetPasswordReset(ctx context.Context, token string) (database.PasswordReset, error)
	MarkPasswordResetUsed(ctx context.Context, id uuid.UUID) error
}

// ResetMailer sends the password-reset email out of band.
type ResetMailer interface {
	SendPasswordReset(to, token string) error
}

// TokenDenier records a JWT ID as logged out for the remainder of its
// lifetime; satisfied by *cache.Cache.
type TokenDenier interface {
	DenyToken(ctx context.Context, jti string, ttl time.Duration) error
}

type AuthHandler struct {
	store     AuthStore
	denylist  TokenDenier
	queue     *tasks.Queue
	mailer    ResetMailer
	jwtSecret string
	logger    *zap.Logger
}

func NewAuthHandler(store AuthStore, denylist TokenDenier, queue *tasks.Queue, mailer ResetMailer, jwtSecret string, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		store:     store,
		denylist:  denylist,
		queue:     queue,
		mailer:    mailer,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// RegisterPublicRoutes registers endpoints reachable without a token.
func (h *AuthHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Post("/password-reset/request", h.RequestPasswordReset)
	r.Post("/password-reset/confirm", h.ConfirmPasswordReset)
}

// RegisterProtectedRoutes registers endpoints behind Authenticate.
func (h *AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)
}

// --- Request / Response types ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Site     string    `json:"site"`
	Role     string    `json:"role"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type resetRequestBody struct {
	Email string `json:"email"`
}

type resetConfirmBody struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// --- Handlers ---

// Login verifies credentials and issues a token that expires at the
// next 09:00 UTC, so every session rolls over with the business day.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and password are required"})
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		h.logger.Error("lookup user", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if !user.IsActive {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	role, err := h.store.GetRole(r.Context(), user.RoleID)
	if err != nil {
		h.logger.Error("lookup role", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret, user.ID, user.Site, role.Name)
	if err != nil {
		h.logger.Error("generate token", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: auth.NextNineAMUTC(time.Now()),
		User: userResponse{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
			Site:     user.Site,
			Role:     role.Name,
		},
	})
}

// Logout denylists the token's unique ID for the remainder of its
// lifetime, so the token stops working before its natural expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
		return
	}
	if err := h.denylist.DenyToken(r.Context(), claims.ID, ttl); err != nil {
		h.logger.Error("deny token", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the profile behind the presented token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	user, err := h.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		h.logger.Error("lookup user", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Site:     user.Site,
		Role:     claims.Role,
	})
}

// RequestPasswordReset always answers 202 so the endpoint cannot be
// used to probe which emails exist. The mail itself goes through the
// task queue and retries on failure.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			h.logger.Error("lookup user", zap.Error(err))
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
		return
	}

	reset, err := h.store.CreatePasswordReset(r.Context(), database.CreatePasswordResetParams{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(passwordResetTTL),
	})
	if err != nil {
		h.logger.Error("create password reset", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	email, token := user.Email, reset.Token
	h.queue.Enqueue(tasks.Task{
		Name: "password-reset-email",
		Run: func(ctx context.Context) error {
			return h.mailer.SendPasswordReset(email, token)
		},
	})

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// ConfirmPasswordReset consumes a one-time token and stores the new
// password hash.
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Token == "" || len(req.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "token and a password of at least 8 characters are required"})
		return
	}

	reset, err := h.store.GetPasswordReset(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid or expired token"})
			return
		}
		h.logger.Error("lookup password reset", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := h.store.SetUserPassword(r.Context(), database.SetUserPasswordParams{
		ID:             reset.UserID,
		HashedPassword: string(hashed),
	}); err != nil {
		h.logger.Error("set password", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if err := h.store.MarkPasswordResetUsed(r.Context(), reset.ID); err != nil {
		h.logger.Error("mark reset used", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}
