package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT id, site, email, full_name, hashed_password, role_id,
       custom_permissions, is_active, created_at
FROM users
WHERE email = $1 AND is_active
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(
		&i.ID, &i.Site, &i.Email, &i.FullName, &i.HashedPassword,
		&i.RoleID, &i.CustomPermissions, &i.IsActive, &i.CreatedAt,
	)
	return i, err
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, site, email, full_name, hashed_password, role_id,
       custom_permissions, is_active, created_at
FROM users
WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	var i User
	err := row.Scan(
		&i.ID, &i.Site, &i.Email, &i.FullName, &i.HashedPassword,
		&i.RoleID, &i.CustomPermissions, &i.IsActive, &i.CreatedAt,
	)
	return i, err
}

const listUsersBySite = `-- name: ListUsersBySite :many
SELECT id, site, email, full_name, hashed_password, role_id,
       custom_permissions, is_active, created_at
FROM users
WHERE site = $1 AND is_active
ORDER BY full_name
`

func (q *Queries) ListUsersBySite(ctx context.Context, site string) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsersBySite, site)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		var i User
		if err := rows.Scan(
			&i.ID, &i.Site, &i.Email, &i.FullName, &i.HashedPassword,
			&i.RoleID, &i.CustomPermissions, &i.IsActive, &i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (site, email, full_name, hashed_password, role_id, custom_permissions)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, site, email, full_name, hashed_password, role_id,
          custom_permissions, is_active, created_at
`

type CreateUserParams struct {
	Site              string
	Email             string
	FullName          string
	HashedPassword    string
	RoleID            uuid.UUID
	CustomPermissions []byte
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser,
		arg.Site, arg.Email, arg.FullName, arg.HashedPassword, arg.RoleID, arg.CustomPermissions,
	)
	var i User
	err := row.Scan(
		&i.ID, &i.Site, &i.Email, &i.FullName, &i.HashedPassword,
		&i.RoleID, &i.CustomPermissions, &i.IsActive, &i.CreatedAt,
	)
	return i, err
}

const updateUser = `-- name: UpdateUser :one
UPDATE users SET full_name = $2, role_id = $3
WHERE id = $1 AND is_active
RETURNING id, site, email, full_name, hashed_password, role_id,
          custom_permissions, is_active, created_at
`

type UpdateUserParams struct {
	ID       uuid.UUID
	FullName string
	RoleID   uuid.UUID
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, updateUser, arg.ID, arg.FullName, arg.RoleID)
	var i User
	err := row.Scan(
		&i.ID, &i.Site, &i.Email, &i.FullName, &i.HashedPassword,
		&i.RoleID, &i.CustomPermissions, &i.IsActive, &i.CreatedAt,
	)
	return i, err
}

const setUserOverrides = `-- name: SetUserOverrides :one
UPDATE users SET custom_permissions = $2
WHERE id = $1 AND is_active
RETURNING id, site, email, full_name, hashed_password, role_id,
          custom_permissions, is_active, created_at
`

type SetUserOverridesParams struct {
	ID                uuid.UUID
	CustomPermissions []byte
}

func (q *Queries) SetUserOverrides(ctx context.Context, arg SetUserOverridesParams) (User, error) {
	row := q.db.QueryRow(ctx, setUserOverrides, arg.ID, arg.CustomPermissions)
	var i User
	err := row.Scan(
		&i.ID, &i.Site, &i.Email, &i.FullName, &i.HashedPassword,
		&i.RoleID, &i.CustomPermissions, &i.IsActive, &i.CreatedAt,
	)
	return i, err
}

const setUserPassword = `-- name: SetUserPassword :exec
UPDATE users SET hashed_password = $2
WHERE id = $1
`

type SetUserPasswordParams struct {
	ID             uuid.UUID
	HashedPassword string
}

func (q *Queries) SetUserPassword(ctx context.Context, arg SetUserPasswordParams) error {
	_, err := q.db.Exec(ctx, setUserPassword, arg.ID, arg.HashedPassword)
	return err
}

const deactivateUser = `-- name: DeactivateUser :one
UPDATE users SET is_active = FALSE
WHERE id = $1 AND is_active
RETURNING id
`

func (q *Queries) DeactivateUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deactivateUser, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}

const createPasswordReset = `-- name: CreatePasswordReset :one
INSERT INTO password_resets (user_id, token, expires_at)
VALUES ($1, $2, $3)
RETURNING id, user_id, token, expires_at, used, created_at
`

type CreatePasswordResetParams struct {
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
}

func (q *Queries) CreatePasswordReset(ctx context.Context, arg CreatePasswordResetParams) (PasswordReset, error) {
	row := q.db.QueryRow(ctx, createPasswordReset, arg.UserID, arg.Token, arg.ExpiresAt)
	var i PasswordReset
	err := row.Scan(&i.ID, &i.UserID, &i.Token, &i.ExpiresAt, &i.Used, &i.CreatedAt)
	return i, err
}

const getPasswordReset = `-- name: GetPasswordReset :one
SELECT id, user_id, token, expires_at, used, created_at
FROM password_resets
WHERE token = $1 AND NOT used AND expires_at > now()
`

func (q *Queries) GetPasswordReset(ctx context.Context, token string) (PasswordReset, error) {
	row := q.db.QueryRow(ctx, getPasswordReset, token)
	var i PasswordReset
	err := row.Scan(&i.ID, &i.UserID, &i.Token, &i.ExpiresAt, &i.Used, &i.CreatedAt)
	return i, err
}

const markPasswordResetUsed = `-- name: MarkPasswordResetUsed :exec
UPDATE password_resets SET used = TRUE WHERE id = $1
`

func (q *Queries) MarkPasswordResetUsed(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, markPasswordResetUsed, id)
	return err
}
