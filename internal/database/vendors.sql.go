package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listVendors = `-- name: ListVendors :many
SELECT id, name, email, payment_terms, is_active, created_at
FROM vendors
WHERE is_active
ORDER BY name
`

func (q *Queries) ListVendors(ctx context.Context) ([]Vendor, error) {
	rows, err := q.db.Query(ctx, listVendors)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Vendor
	for rows.Next() {
		var i Vendor
		if err := rows.Scan(&i.ID, &i.Name, &i.Email, &i.PaymentTerms, &i.IsActive, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getVendor = `-- name: GetVendor :one
SELECT id, name, email, payment_terms, is_active, created_at
FROM vendors
WHERE id = $1
`

func (q *Queries) GetVendor(ctx context.Context, id uuid.UUID) (Vendor, error) {
	row := q.db.QueryRow(ctx, getVendor, id)
	var i Vendor
	err := row.Scan(&i.ID, &i.Name, &i.Email, &i.PaymentTerms, &i.IsActive, &i.CreatedAt)
	return i, err
}

const createVendor = `-- name: CreateVendor :one
INSERT INTO vendors (name, email, payment_terms)
VALUES ($1, $2, $3)
RETURNING id, name, email, payment_terms, is_active, created_at
`

type CreateVendorParams struct {
	Name         string
	Email        pgtype.Text
	PaymentTerms pgtype.Text
}

func (q *Queries) CreateVendor(ctx context.Context, arg CreateVendorParams) (Vendor, error) {
	row := q.db.QueryRow(ctx, createVendor, arg.Name, arg.Email, arg.PaymentTerms)
	var i Vendor
	err := row.Scan(&i.ID, &i.Name, &i.Email, &i.PaymentTerms, &i.IsActive, &i.CreatedAt)
	return i, err
}

const updateVendor = `-- name: UpdateVendor :one
UPDATE vendors SET name = $2, email = $3, payment_terms = $4
WHERE id = $1 AND is_active
RETURNING id, name, email, payment_terms, is_active, created_at
`

type UpdateVendorParams struct {
	ID           uuid.UUID
	Name         string
	Email        pgtype.Text
	PaymentTerms pgtype.Text
}

func (q *Queries) UpdateVendor(ctx context.Context, arg UpdateVendorParams) (Vendor, error) {
	row := q.db.QueryRow(ctx, updateVendor, arg.ID, arg.Name, arg.Email, arg.PaymentTerms)
	var i Vendor
	err := row.Scan(&i.ID, &i.Name, &i.Email, &i.PaymentTerms, &i.IsActive, &i.CreatedAt)
	return i, err
}

const softDeleteVendor = `-- name: SoftDeleteVendor :one
UPDATE vendors SET is_active = FALSE
WHERE id = $1 AND is_active
RETURNING id
`

func (q *Queries) SoftDeleteVendor(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteVendor, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}

const payableColumns = `id, site, vendor_id, invoice_number, amount, method, payable_date, created_at`

const listPayables = `-- name: ListPayables :many
SELECT ` + payableColumns + `
FROM payables
WHERE site = $1 AND payable_date >= $2 AND payable_date <= $3
ORDER BY payable_date DESC, created_at DESC
`

type ListPayablesParams struct {
	Site string
	From time.Time
	To   time.Time
}

func (q *Queries) ListPayables(ctx context.Context, arg ListPayablesParams) ([]Payable, error) {
	rows, err := q.db.Query(ctx, listPayables, arg.Site, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Payable
	for rows.Next() {
		var i Payable
		if err := rows.Scan(
			&i.ID, &i.Site, &i.VendorID, &i.InvoiceNumber, &i.Amount,
			&i.Method, &i.PayableDate, &i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createPayable = `-- name: CreatePayable :one
INSERT INTO payables (site, vendor_id, invoice_number, amount, method, payable_date)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + payableColumns

type CreatePayableParams struct {
	Site          string
	VendorID      uuid.UUID
	InvoiceNumber pgtype.Text
	Amount        pgtype.Numeric
	Method        string
	PayableDate   time.Time
}

func (q *Queries) CreatePayable(ctx context.Context, arg CreatePayableParams) (Payable, error) {
	row := q.db.QueryRow(ctx, createPayable,
		arg.Site, arg.VendorID, arg.InvoiceNumber, arg.Amount, arg.Method, arg.PayableDate,
	)
	var i Payable
	err := row.Scan(
		&i.ID, &i.Site, &i.VendorID, &i.InvoiceNumber, &i.Amount,
		&i.Method, &i.PayableDate, &i.CreatedAt,
	)
	return i, err
}

const getPayable = `-- name: GetPayable :one
SELECT ` + payableColumns + `
FROM payables
WHERE id = $1
`

func (q *Queries) GetPayable(ctx context.Context, id uuid.UUID) (Payable, error) {
	row := q.db.QueryRow(ctx, getPayable, id)
	var i Payable
	err := row.Scan(
		&i.ID, &i.Site, &i.VendorID, &i.InvoiceNumber, &i.Amount,
		&i.Method, &i.PayableDate, &i.CreatedAt,
	)
	return i, err
}
