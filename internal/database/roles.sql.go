package database

import (
	"context"

	"github.com/google/uuid"
)

const listRoles = `-- name: ListRoles :many
SELECT id, name, permissions, created_at
FROM roles
ORDER BY name
`

func (q *Queries) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := q.db.Query(ctx, listRoles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Role
	for rows.Next() {
		var i Role
		if err := rows.Scan(&i.ID, &i.Name, &i.Permissions, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getRole = `-- name: GetRole :one
SELECT id, name, permissions, created_at
FROM roles
WHERE id = $1
`

func (q *Queries) GetRole(ctx context.Context, id uuid.UUID) (Role, error) {
	row := q.db.QueryRow(ctx, getRole, id)
	var i Role
	err := row.Scan(&i.ID, &i.Name, &i.Permissions, &i.CreatedAt)
	return i, err
}

const getRoleByName = `-- name: GetRoleByName :one
SELECT id, name, permissions, created_at
FROM roles
WHERE name = $1
`

func (q *Queries) GetRoleByName(ctx context.Context, name string) (Role, error) {
	row := q.db.QueryRow(ctx, getRoleByName, name)
	var i Role
	err := row.Scan(&i.ID, &i.Name, &i.Permissions, &i.CreatedAt)
	return i, err
}

const createRole = `-- name: CreateRole :one
INSERT INTO roles (name, permissions)
VALUES ($1, $2)
RETURNING id, name, permissions, created_at
`

type CreateRoleParams struct {
	Name        string
	Permissions []byte
}

func (q *Queries) CreateRole(ctx context.Context, arg CreateRoleParams) (Role, error) {
	row := q.db.QueryRow(ctx, createRole, arg.Name, arg.Permissions)
	var i Role
	err := row.Scan(&i.ID, &i.Name, &i.Permissions, &i.CreatedAt)
	return i, err
}

const updateRole = `-- name: UpdateRole :one
UPDATE roles SET name = $2, permissions = $3
WHERE id = $1
RETURNING id, name, permissions, created_at
`

type UpdateRoleParams struct {
	ID          uuid.UUID
	Name        string
	Permissions []byte
}

func (q *Queries) UpdateRole(ctx context.Context, arg UpdateRoleParams) (Role, error) {
	row := q.db.QueryRow(ctx, updateRole, arg.ID, arg.Name, arg.Permissions)
	var i Role
	err := row.Scan(&i.ID, &i.Name, &i.Permissions, &i.CreatedAt)
	return i, err
}

const deleteRole = `-- name: DeleteRole :one
DELETE FROM roles WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteRole(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteRole, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}

const getPermissionRegistry = `-- name: GetPermissionRegistry :one
SELECT id, tree, updated_at
FROM permission_registry
WHERE id = 1
`

func (q *Queries) GetPermissionRegistry(ctx context.Context) (PermissionRegistry, error) {
	row := q.db.QueryRow(ctx, getPermissionRegistry)
	var i PermissionRegistry
	err := row.Scan(&i.ID, &i.Tree, &i.UpdatedAt)
	return i, err
}

const upsertPermissionRegistry = `-- name: UpsertPermissionRegistry :one
INSERT INTO permission_registry (id, tree)
VALUES (1, $1)
ON CONFLICT (id) DO UPDATE SET tree = EXCLUDED.tree, updated_at = now()
RETURNING id, tree, updated_at
`

func (q *Queries) UpsertPermissionRegistry(ctx context.Context, tree []byte) (PermissionRegistry, error) {
	row := q.db.QueryRow(ctx, upsertPermissionRegistry, tree)
	var i PermissionRegistry
	err := row.Scan(&i.ID, &i.Tree, &i.UpdatedAt)
	return i, err
}
