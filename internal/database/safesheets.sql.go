package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createSafesheet = `-- name: CreateSafesheet :one
INSERT INTO safesheets (site, initial_balance)
VALUES ($1, $2)
RETURNING id, site, initial_balance, created_at
`

type CreateSafesheetParams struct {
	Site           string
	InitialBalance pgtype.Numeric
}

func (q *Queries) CreateSafesheet(ctx context.Context, arg CreateSafesheetParams) (Safesheet, error) {
	row := q.db.QueryRow(ctx, createSafesheet, arg.Site, arg.InitialBalance)
	var i Safesheet
	err := row.Scan(&i.ID, &i.Site, &i.InitialBalance, &i.CreatedAt)
	return i, err
}

const getSafesheetBySite = `-- name: GetSafesheetBySite :one
SELECT id, site, initial_balance, created_at
FROM safesheets
WHERE site = $1
`

func (q *Queries) GetSafesheetBySite(ctx context.Context, site string) (Safesheet, error) {
	row := q.db.QueryRow(ctx, getSafesheetBySite, site)
	var i Safesheet
	err := row.Scan(&i.ID, &i.Site, &i.InitialBalance, &i.CreatedAt)
	return i, err
}

const getOrCreateSafesheet = `-- name: GetOrCreateSafesheet :one
INSERT INTO safesheets (site, initial_balance)
VALUES ($1, 0)
ON CONFLICT (site) DO UPDATE SET site = EXCLUDED.site
RETURNING id, site, initial_balance, created_at
`

// GetOrCreateSafesheet lazily creates the site's sheet with a zero
// float. The no-op conflict update makes RETURNING yield the existing
// row.
func (q *Queries) GetOrCreateSafesheet(ctx context.Context, site string) (Safesheet, error) {
	row := q.db.QueryRow(ctx, getOrCreateSafesheet, site)
	var i Safesheet
	err := row.Scan(&i.ID, &i.Site, &i.InitialBalance, &i.CreatedAt)
	return i, err
}

const listSafesheetEntries = `-- name: ListSafesheetEntries :many
SELECT id, safesheet_id, entry_date, assigned_date, description,
       cash_in, cash_expense_out, cash_deposit_bank, photo,
       created_at, updated_at
FROM safesheet_entries
WHERE safesheet_id = $1
ORDER BY entry_date, created_at, id
`

func (q *Queries) ListSafesheetEntries(ctx context.Context, safesheetID uuid.UUID) ([]SafesheetEntry, error) {
	rows, err := q.db.Query(ctx, listSafesheetEntries, safesheetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SafesheetEntry
	for rows.Next() {
		var i SafesheetEntry
		if err := rows.Scan(
			&i.ID, &i.SafesheetID, &i.EntryDate, &i.AssignedDate, &i.Description,
			&i.CashIn, &i.CashExpenseOut, &i.CashDepositBank, &i.Photo,
			&i.CreatedAt, &i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createSafesheetEntry = `-- name: CreateSafesheetEntry :one
INSERT INTO safesheet_entries (
	safesheet_id, entry_date, assigned_date, description,
	cash_in, cash_expense_out, cash_deposit_bank, photo
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, safesheet_id, entry_date, assigned_date, description,
          cash_in, cash_expense_out, cash_deposit_bank, photo,
          created_at, updated_at
`

type CreateSafesheetEntryParams struct {
	SafesheetID     uuid.UUID
	EntryDate       time.Time
	AssignedDate    pgtype.Timestamptz
	Description     string
	CashIn          pgtype.Numeric
	CashExpenseOut  pgtype.Numeric
	CashDepositBank pgtype.Numeric
	Photo           pgtype.Text
}

func (q *Queries) CreateSafesheetEntry(ctx context.Context, arg CreateSafesheetEntryParams) (SafesheetEntry, error) {
	row := q.db.QueryRow(ctx, createSafesheetEntry,
		arg.SafesheetID, arg.EntryDate, arg.AssignedDate, arg.Description,
		arg.CashIn, arg.CashExpenseOut, arg.CashDepositBank, arg.Photo,
	)
	var i SafesheetEntry
	err := row.Scan(
		&i.ID, &i.SafesheetID, &i.EntryDate, &i.AssignedDate, &i.Description,
		&i.CashIn, &i.CashExpenseOut, &i.CashDepositBank, &i.Photo,
		&i.CreatedAt, &i.UpdatedAt,
	)
	return i, err
}

const updateSafesheetEntry = `-- name: UpdateSafesheetEntry :one
UPDATE safesheet_entries SET
	description       = COALESCE($3, description),
	cash_in           = COALESCE($4, cash_in),
	cash_expense_out  = COALESCE($5, cash_expense_out),
	cash_deposit_bank = COALESCE($6, cash_deposit_bank),
	photo             = COALESCE($7, photo),
	assigned_date     = COALESCE($8, assigned_date),
	updated_at        = now()
WHERE id = $1 AND safesheet_id = $2
RETURNING id, safesheet_id, entry_date, assigned_date, description,
          cash_in, cash_expense_out, cash_deposit_bank, photo,
          created_at, updated_at
`

type UpdateSafesheetEntryParams struct {
	ID              uuid.UUID
	SafesheetID     uuid.UUID
	Description     pgtype.Text
	CashIn          pgtype.Numeric
	CashExpenseOut  pgtype.Numeric
	CashDepositBank pgtype.Numeric
	Photo           pgtype.Text
	AssignedDate    pgtype.Timestamptz
}

// UpdateSafesheetEntry merges only the provided fields; invalid pgtype
// values arrive as SQL NULL and leave the column untouched.
func (q *Queries) UpdateSafesheetEntry(ctx context.Context, arg UpdateSafesheetEntryParams) (SafesheetEntry, error) {
	row := q.db.QueryRow(ctx, updateSafesheetEntry,
		arg.ID, arg.SafesheetID, arg.Description,
		arg.CashIn, arg.CashExpenseOut, arg.CashDepositBank,
		arg.Photo, arg.AssignedDate,
	)
	var i SafesheetEntry
	err := row.Scan(
		&i.ID, &i.SafesheetID, &i.EntryDate, &i.AssignedDate, &i.Description,
		&i.CashIn, &i.CashExpenseOut, &i.CashDepositBank, &i.Photo,
		&i.CreatedAt, &i.UpdatedAt,
	)
	return i, err
}

const findEntryByDescriptionAndDay = `-- name: FindEntryByDescriptionAndDay :one
SELECT id, safesheet_id, entry_date, assigned_date, description,
       cash_in, cash_expense_out, cash_deposit_bank, photo,
       created_at, updated_at
FROM safesheet_entries
WHERE safesheet_id = $1
  AND description = $2
  AND entry_date >= $3
  AND entry_date < $4
ORDER BY created_at
LIMIT 1
`

type FindEntryByDescriptionAndDayParams struct {
	SafesheetID uuid.UUID
	Description string
	DayStart    time.Time
	DayEnd      time.Time
}

func (q *Queries) FindEntryByDescriptionAndDay(ctx context.Context, arg FindEntryByDescriptionAndDayParams) (SafesheetEntry, error) {
	row := q.db.QueryRow(ctx, findEntryByDescriptionAndDay,
		arg.SafesheetID, arg.Description, arg.DayStart, arg.DayEnd,
	)
	var i SafesheetEntry
	err := row.Scan(
		&i.ID, &i.SafesheetID, &i.EntryDate, &i.AssignedDate, &i.Description,
		&i.CashIn, &i.CashExpenseOut, &i.CashDepositBank, &i.Photo,
		&i.CreatedAt, &i.UpdatedAt,
	)
	return i, err
}
