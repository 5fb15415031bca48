package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const cycleItemColumns = `id, site, upc, name, grade, flagged, on_hand,
       counted_qty, counted_at, display_date, updated_at`

const upsertCycleCountItem = `-- name: UpsertCycleCountItem :one
INSERT INTO cycle_count_items (site, upc, name, grade, flagged, on_hand)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (site, upc) DO UPDATE SET
	name    = EXCLUDED.name,
	grade   = EXCLUDED.grade,
	flagged = EXCLUDED.flagged,
	on_hand = EXCLUDED.on_hand
RETURNING ` + cycleItemColumns

type UpsertCycleCountItemParams struct {
	Site    string
	Upc     string
	Name    string
	Grade   string
	Flagged bool
	OnHand  int32
}

func (q *Queries) UpsertCycleCountItem(ctx context.Context, arg UpsertCycleCountItemParams) (CycleCountItem, error) {
	row := q.db.QueryRow(ctx, upsertCycleCountItem,
		arg.Site, arg.Upc, arg.Name, arg.Grade, arg.Flagged, arg.OnHand,
	)
	var i CycleCountItem
	err := row.Scan(
		&i.ID, &i.Site, &i.Upc, &i.Name, &i.Grade, &i.Flagged, &i.OnHand,
		&i.CountedQty, &i.CountedAt, &i.DisplayDate, &i.UpdatedAt,
	)
	return i, err
}

const listCycleCountItems = `-- name: ListCycleCountItems :many
SELECT ` + cycleItemColumns + `
FROM cycle_count_items
WHERE site = $1
ORDER BY updated_at, upc
`

func (q *Queries) ListCycleCountItems(ctx context.Context, site string) ([]CycleCountItem, error) {
	rows, err := q.db.Query(ctx, listCycleCountItems, site)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CycleCountItem
	for rows.Next() {
		var i CycleCountItem
		if err := rows.Scan(
			&i.ID, &i.Site, &i.Upc, &i.Name, &i.Grade, &i.Flagged, &i.OnHand,
			&i.CountedQty, &i.CountedAt, &i.DisplayDate, &i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const lookupCycleCountItem = `-- name: LookupCycleCountItem :one
SELECT ` + cycleItemColumns + `
FROM cycle_count_items
WHERE site = $1 AND (upc = $2 OR name ILIKE '%' || $2 || '%')
ORDER BY (upc = $2) DESC, name
LIMIT 1
`

type LookupCycleCountItemParams struct {
	Site  string
	Query string
}

func (q *Queries) LookupCycleCountItem(ctx context.Context, arg LookupCycleCountItemParams) (CycleCountItem, error) {
	row := q.db.QueryRow(ctx, lookupCycleCountItem, arg.Site, arg.Query)
	var i CycleCountItem
	err := row.Scan(
		&i.ID, &i.Site, &i.Upc, &i.Name, &i.Grade, &i.Flagged, &i.OnHand,
		&i.CountedQty, &i.CountedAt, &i.DisplayDate, &i.UpdatedAt,
	)
	return i, err
}

const saveCycleCount = `-- name: SaveCycleCount :one
UPDATE cycle_count_items SET
	counted_qty = $3,
	counted_at  = now(),
	updated_at  = now()
WHERE site = $1 AND id = $2
RETURNING ` + cycleItemColumns

type SaveCycleCountParams struct {
	Site       string
	ID         uuid.UUID
	CountedQty pgtype.Int4
}

func (q *Queries) SaveCycleCount(ctx context.Context, arg SaveCycleCountParams) (CycleCountItem, error) {
	row := q.db.QueryRow(ctx, saveCycleCount, arg.Site, arg.ID, arg.CountedQty)
	var i CycleCountItem
	err := row.Scan(
		&i.ID, &i.Site, &i.Upc, &i.Name, &i.Grade, &i.Flagged, &i.OnHand,
		&i.CountedQty, &i.CountedAt, &i.DisplayDate, &i.UpdatedAt,
	)
	return i, err
}

const stampDisplayDate = `-- name: StampDisplayDate :exec
UPDATE cycle_count_items SET display_date = $2
WHERE id = ANY($1::uuid[])
`

type StampDisplayDateParams struct {
	Ids         []uuid.UUID
	DisplayDate pgtype.Date
}

func (q *Queries) StampDisplayDate(ctx context.Context, arg StampDisplayDateParams) error {
	_, err := q.db.Exec(ctx, stampDisplayDate, arg.Ids, arg.DisplayDate)
	return err
}

const writeOffColumns = `id, site, upc, item_name, quantity, reason, write_off_date, created_at`

const createWriteOff = `-- name: CreateWriteOff :one
INSERT INTO write_offs (site, upc, item_name, quantity, reason, write_off_date)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + writeOffColumns

type CreateWriteOffParams struct {
	Site         string
	Upc          string
	ItemName     string
	Quantity     int32
	Reason       string
	WriteOffDate time.Time
}

func (q *Queries) CreateWriteOff(ctx context.Context, arg CreateWriteOffParams) (WriteOff, error) {
	row := q.db.QueryRow(ctx, createWriteOff,
		arg.Site, arg.Upc, arg.ItemName, arg.Quantity, arg.Reason, arg.WriteOffDate,
	)
	var i WriteOff
	err := row.Scan(
		&i.ID, &i.Site, &i.Upc, &i.ItemName, &i.Quantity,
		&i.Reason, &i.WriteOffDate, &i.CreatedAt,
	)
	return i, err
}

const listWriteOffs = `-- name: ListWriteOffs :many
SELECT ` + writeOffColumns + `
FROM write_offs
WHERE site = $1 AND write_off_date >= $2 AND write_off_date <= $3
ORDER BY write_off_date DESC, created_at DESC
`

type ListWriteOffsParams struct {
	Site string
	From time.Time
	To   time.Time
}

func (q *Queries) ListWriteOffs(ctx context.Context, arg ListWriteOffsParams) ([]WriteOff, error) {
	rows, err := q.db.Query(ctx, listWriteOffs, arg.Site, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WriteOff
	for rows.Next() {
		var i WriteOff
		if err := rows.Scan(
			&i.ID, &i.Site, &i.Upc, &i.ItemName, &i.Quantity,
			&i.Reason, &i.WriteOffDate, &i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
