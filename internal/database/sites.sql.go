package database

import (
	"context"

	"github.com/google/uuid"
)

const listSites = `-- name: ListSites :many
SELECT code, name, timezone, created_at
FROM sites
ORDER BY code
`

func (q *Queries) ListSites(ctx context.Context) ([]Site, error) {
	rows, err := q.db.Query(ctx, listSites)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Site
	for rows.Next() {
		var i Site
		if err := rows.Scan(&i.Code, &i.Name, &i.Timezone, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getSite = `-- name: GetSite :one
SELECT code, name, timezone, created_at
FROM sites
WHERE code = $1
`

func (q *Queries) GetSite(ctx context.Context, code string) (Site, error) {
	row := q.db.QueryRow(ctx, getSite, code)
	var i Site
	err := row.Scan(&i.Code, &i.Name, &i.Timezone, &i.CreatedAt)
	return i, err
}

const createSite = `-- name: CreateSite :one
INSERT INTO sites (code, name, timezone)
VALUES ($1, $2, $3)
RETURNING code, name, timezone, created_at
`

type CreateSiteParams struct {
	Code     string
	Name     string
	Timezone string
}

func (q *Queries) CreateSite(ctx context.Context, arg CreateSiteParams) (Site, error) {
	row := q.db.QueryRow(ctx, createSite, arg.Code, arg.Name, arg.Timezone)
	var i Site
	err := row.Scan(&i.Code, &i.Name, &i.Timezone, &i.CreatedAt)
	return i, err
}

const createAuditLog = `-- name: CreateAuditLog :one
INSERT INTO audit_logs (actor_id, action, entity, detail)
VALUES ($1, $2, $3, $4)
RETURNING id, actor_id, action, entity, detail, created_at
`

type CreateAuditLogParams struct {
	ActorID uuid.UUID
	Action  string
	Entity  string
	Detail  []byte
}

func (q *Queries) CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) (AuditLog, error) {
	row := q.db.QueryRow(ctx, createAuditLog, arg.ActorID, arg.Action, arg.Entity, arg.Detail)
	var i AuditLog
	err := row.Scan(&i.ID, &i.ActorID, &i.Action, &i.Entity, &i.Detail, &i.CreatedAt)
	return i, err
}

const listAuditLogs = `-- name: ListAuditLogs :many
SELECT id, actor_id, action, entity, detail, created_at
FROM audit_logs
ORDER BY created_at DESC
LIMIT $1
`

func (q *Queries) ListAuditLogs(ctx context.Context, limit int32) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, listAuditLogs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AuditLog
	for rows.Next() {
		var i AuditLog
		if err := rows.Scan(&i.ID, &i.ActorID, &i.Action, &i.Entity, &i.Detail, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
