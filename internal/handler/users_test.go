package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/Gen7Fuel/thehub-sub000/internal/database"
	"github.com/Gen7Fuel/thehub-sub000/internal/handler"
	"github.com/Gen7Fuel/thehub-sub000/internal/permissions"
)

// --- Mock store ---

type mockUserStore struct {
	users    map[uuid.UUID]database.User
	roles    map[uuid.UUID]database.Role
	registry database.PermissionRegistry
	audits   []database.CreateAuditLogParams
}

func newMockUserStore(t *testing.T) *mockUserStore {
	t.Helper()
	tree := []permissions.Node{
		{Name: "safesheet", Value: false, Children: []permissions.Node{{Name: "entries", Value: false}}},
		{Name: "payables", Value: false},
	}
	raw, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("marshal registry tree: %v", err)
	}
	return &mockUserStore{
		users:    make(map[uuid.UUID]database.User),
		roles:    make(map[uuid.UUID]database.Role),
		registry: database.PermissionRegistry{ID: 1, Tree: raw, UpdatedAt: time.Now()},
	}
}

func (m *mockUserStore) ListUsersBySite(_ context.Context, site string) ([]database.User, error) {
	var result []database.User
	for _, u := range m.users {
		if u.Site == site && u.IsActive {
			result = append(result, u)
		}
	}
	return result, nil
}

func (m *mockUserStore) GetUserByID(_ context.Context, id uuid.UUID) (database.User, error) {
	u, ok := m.users[id]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockUserStore) CreateUser(_ context.Context, arg database.CreateUserParams) (database.User, error) {
	for _, u := range m.users {
		if u.Email == arg.Email {
			return database.User{}, &pgconn.PgError{Code: "23505"}
		}
	}
	u := database.User{
		ID:                uuid.New(),
		Site:              arg.Site,
		Email:             arg.Email,
		FullName:          arg.FullName,
		HashedPassword:    arg.HashedPassword,
		RoleID:            arg.RoleID,
		CustomPermissions: arg.CustomPermissions,
		IsActive:          true,
		CreatedAt:         time.Now(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserStore) UpdateUser(_ context.Context, arg database.UpdateUserParams) (database.User, error) {
	u, ok := m.users[arg.ID]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	u.FullName = arg.FullName
	u.RoleID = arg.RoleID
	m.users[arg.ID] = u
	return u, nil
}

func (m *mockUserStore) SetUserOverrides(_ context.Context, arg database.SetUserOverridesParams) (database.User, error) {
	u, ok := m.users[arg.ID]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	u.CustomPermissions = arg.CustomPermissions
	m.users[arg.ID] = u
	return u, nil
}

func (m *mockUserStore) DeactivateUser(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	u, ok := m.users[id]
	if !ok {
		return uuid.Nil, pgx.ErrNoRows
	}
	u.IsActive = false
	m.users[id] = u
	return id, nil
}

func (m *mockUserStore) GetRole(_ context.Context, id uuid.UUID) (database.Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return database.Role{}, pgx.ErrNoRows
	}
	return r, nil
}

func (m *mockUserStore) GetRoleByName(_ context.Context, name string) (database.Role, error) {
	for _, r := range m.roles {
		if r.Name == name {
			return r, nil
		}
	}
	return database.Role{}, pgx.ErrNoRows
}

func (m *mockUserStore) GetPermissionRegistry(_ context.Context) (database.PermissionRegistry, error) {
	return m.registry, nil
}

func (m *mockUserStore) CreateAuditLog(_ context.Context, arg database.CreateAuditLogParams) (database.AuditLog, error) {
	m.audits = append(m.audits, arg)
	return database.AuditLog{ID: uuid.New()}, nil
}

// mockInvalidator records which users had their cached trees dropped.
type mockInvalidator struct {
	invalidated []uuid.UUID
}

func (m *mockInvalidator) Invalidate(_ context.Context, userIDs ...uuid.UUID) {
	m.invalidated = append(m.invalidated, userIDs...)
}

// --- Helpers ---

func (m *mockUserStore) seedRole(t *testing.T, name string, tree []permissions.Node) database.Role {
	t.Helper()
	raw, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("marshal role tree: %v", err)
	}
	r := database.Role{ID: uuid.New(), Name: name, Permissions: raw, CreatedAt: time.Now()}
	m.roles[r.ID] = r
	return r
}

func (m *mockUserStore) seedSiteUser(t *testing.T, site, email string, roleID uuid.UUID) database.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := database.User{
		ID:                uuid.New(),
		Site:              site,
		Email:             email,
		FullName:          "Seeded User",
		HashedPassword:    string(hashed),
		RoleID:            roleID,
		CustomPermissions: []byte("[]"),
		IsActive:          true,
		CreatedAt:         time.Now(),
	}
	m.users[u.ID] = u
	return u
}

func setupUserRouter(store *mockUserStore, invalidator *mockInvalidator) *chi.Mux {
	h := handler.NewUserHandler(store, invalidator, nil)
	r := chi.NewRouter()
	r.Route("/sites/{site}/users", h.RegisterRoutes)
	return r
}

// --- Create tests ---

func TestUserCreate_Valid(t *testing.T) {
	store := newMockUserStore(t)
	store.seedRole(t, "STATION", nil)
	router := setupUserRouter(store, &mockInvalidator{})

	rr := doRequest(t, router, "POST", "/sites/RANKIN/users", map[string]interface{}{
		"email":     "new@gen7fuel.com",
		"full_name": "New Clerk",
		"password":  "password123",
		"role":      "STATION",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["email"] != "new@gen7fuel.com" {
		t.Errorf("email: got %v", resp["email"])
	}
	if resp["site"] != "RANKIN" {
		t.Errorf("site: got %v", resp["site"])
	}
	if resp["role"] != "STATION" {
		t.Errorf("role: got %v", resp["role"])
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	store := newMockUserStore(t)
	role := store.seedRole(t, "STATION", nil)
	store.seedSiteUser(t, "RANKIN", "dupe@gen7fuel.com", role.ID)
	router := setupUserRouter(store, &mockInvalidator{})

	rr := doRequest(t, router, "POST", "/sites/RANKIN/users", map[string]interface{}{
		"email":     "dupe@gen7fuel.com",
		"full_name": "Duplicate",
		"password":  "password123",
		"role":      "STATION",
	})

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "email already registered" {
		t.Errorf("error: got %v", resp["error"])
	}
}

func TestUserCreate_UnknownRole(t *testing.T) {
	store := newMockUserStore(t)
	router := setupUserRouter(store, &mockInvalidator{})

	rr := doRequest(t, router, "POST", "/sites/RANKIN/users", map[string]interface{}{
		"email":     "new@gen7fuel.com",
		"full_name": "New Clerk",
		"password":  "password123",
		"role":      "OVERLORD",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestUserCreate_ShortPassword(t *testing.T) {
	store := newMockUserStore(t)
	store.seedRole(t, "STATION", nil)
	router := setupUserRouter(store, &mockInvalidator{})

	rr := doRequest(t, router, "POST", "/sites/RANKIN/users", map[string]interface{}{
		"email":     "new@gen7fuel.com",
		"full_name": "New Clerk",
		"password":  "short",
		"role":      "STATION",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- List / Get tests ---

func TestUserList_OnlyOwnSiteAndActive(t *testing.T) {
	store := newMockUserStore(t)
	role := store.seedRole(t, "STATION", nil)
	store.seedSiteUser(t, "RANKIN", "a@gen7fuel.com", role.ID)
	store.seedSiteUser(t, "COUCHI", "b@gen7fuel.com", role.ID)
	gone := store.seedSiteUser(t, "RANKIN", "c@gen7fuel.com", role.ID)
	gone.IsActive = false
	store.users[gone.ID] = gone

	router := setupUserRouter(store, &mockInvalidator{})
	rr := doRequest(t, router, "GET", "/sites/RANKIN/users", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeListResponse(t, rr)
	if len(resp) != 1 {
		t.Fatalf("expected 1 user, got %d", len(resp))
	}
	if resp[0]["email"] != "a@gen7fuel.com" {
		t.Errorf("email: got %v", resp[0]["email"])
	}
}

func TestUserGet_WrongSiteHidden(t *testing.T) {
	store := newMockUserStore(t)
	role := store.seedRole(t, "STATION", nil)
	user := store.seedSiteUser(t, "RANKIN", "a@gen7fuel.com", role.ID)
	router := setupUserRouter(store, &mockInvalidator{})

	rr := doRequest(t, router, "GET", "/sites/COUCHI/users/"+user.ID.String(), nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- Update tests ---

func TestUserUpdate_RoleChangeInvalidatesCache(t *testing.T) {
	store := newMockUserStore(t)
	station := store.seedRole(t, "STATION", nil)
	store.seedRole(t, "MANAGER", nil)
	user := store.seedSiteUser(t, "RANKIN", "a@gen7fuel.com", station.ID)
	invalidator := &mockInvalidator{}
	router := setupUserRouter(store, invalidator)

	rr := doAuthedRequest(t, router, "PUT", "/sites/RANKIN/users/"+user.ID.String(), map[string]interface{}{
		"role": "MANAGER",
	}, stationClaims("RANKIN"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	if len(invalidator.invalidated) != 1 || invalidator.invalidated[0] != user.ID {
		t.Errorf("expected cached tree for %s invalidated, got %v", user.ID, invalidator.invalidated)
	}
	if len(store.audits) != 1 || store.audits[0].Action != "user.role_change" {
		t.Errorf("expected a user.role_change audit entry, got %+v", store.audits)
	}
}

func TestUserUpdate_NameOnlySkipsInvalidation(t *testing.T) {
	store := newMockUserStore(t)
	role := store.seedRole(t, "STATION", nil)
	user := store.seedSiteUser(t, "RANKIN", "a@gen7fuel.com", role.ID)
	invalidator := &mockInvalidator{}
	router := setupUserRouter(store, invalidator)

	rr := doRequest(t, router, "PUT", "/sites/RANKIN/users/"+user.ID.String(), map[string]interface{}{
		"full_name": "Renamed Clerk",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["full_name"] != "Renamed Clerk" {
		t.Errorf("full_name: got %v", resp["full_name"])
	}
	if len(invalidator.invalidated) != 0 {
		t.Error("name-only update should not invalidate the permission cache")
	}
}

// --- Permission override tests ---

func TestUserSetPermissions_StoresMinimalDiff(t *testing.T) {
	store := newMockUserStore(t)
	role := store.seedRole(t, "STATION", []permissions.Node{
		{Name: "safesheet", Value: true, Children: []permissions.Node{{Name: "entries", Value: true}}},
	})
	user := store.seedSiteUser(t, "RANKIN", "a@gen7fuel.com", role.ID)
	invalidator := &mockInvalidator{}
	router := setupUserRouter(store, invalidator)

	// Admin grants payables on top of the role and leaves the rest as-is.
	resolved := []permissions.Node{
		{Name: "safesheet", Value: true, Children: []permissions.Node{{Name: "entries", Value: true}}},
		{Name: "payables", Value: true},
	}

	rr := doAuthedRequest(t, router, "PUT", "/sites/RANKIN/users/"+user.ID.String()+"/permissions", resolved, stationClaims("RANKIN"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}

	var stored []permissions.Node
	if err := json.Unmarshal(store.users[user.ID].CustomPermissions, &stored); err != nil {
		t.Fatalf("stored overrides not valid JSON: %v", err)
	}
	// Only the divergence from the role defaults is persisted.
	if len(stored) != 1 || stored[0].Name != "payables" || !stored[0].Value {
		t.Errorf("stored overrides: got %+v, want just payables=true", stored)
	}

	if len(invalidator.invalidated) != 1 || invalidator.invalidated[0] != user.ID {
		t.Errorf("expected invalidation for %s, got %v", user.ID, invalidator.invalidated)
	}
	if len(store.audits) != 1 || store.audits[0].Action != "user.permissions_change" {
		t.Errorf("expected a user.permissions_change audit entry, got %+v", store.audits)
	}
}

func TestUserSetPermissions_MatchingTreeStoresNothing(t *testing.T) {
	store := newMockUserStore(t)
	roleTree := []permissions.Node{
		{Name: "safesheet", Value: true, Children: []permissions.Node{{Name: "entries", Value: true}}},
	}
	role := store.seedRole(t, "STATION", roleTree)
	user := store.seedSiteUser(t, "RANKIN", "a@gen7fuel.com", role.ID)
	router := setupUserRouter(store, &mockInvalidator{})

	rr := doRequest(t, router, "PUT", "/sites/RANKIN/users/"+user.ID.String()+"/permissions", roleTree)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}

	var stored []permissions.Node
	if err := json.Unmarshal(store.users[user.ID].CustomPermissions, &stored); err != nil {
		t.Fatalf("stored overrides not valid JSON: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("tree identical to role defaults should store no overrides, got %+v", stored)
	}
}

// --- Deactivate tests ---

func TestUserDeactivate(t *testing.T) {
	store := newMockUserStore(t)
	role := store.seedRole(t, "STATION", nil)
	user := store.seedSiteUser(t, "RANKIN", "a@gen7fuel.com", role.ID)
	invalidator := &mockInvalidator{}
	router := setupUserRouter(store, invalidator)

	rr := doRequest(t, router, "DELETE", "/sites/RANKIN/users/"+user.ID.String(), nil)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}
	if store.users[user.ID].IsActive {
		t.Error("user should be deactivated, not deleted")
	}
	if len(invalidator.invalidated) != 1 {
		t.Error("deactivation should drop the cached permission tree")
	}
}
