package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const cashSummaryColumns = `id, site, business_date, shift_number, fuel_sales, merch_sales,
       cash_collected, card_collected, deposit_amount, notes, report,
       status, submitted_at, created_at`

func scanCashSummary(row rowScanner, i *CashSummary) error {
	return row.Scan(
		&i.ID, &i.Site, &i.BusinessDate, &i.ShiftNumber, &i.FuelSales, &i.MerchSales,
		&i.CashCollected, &i.CardCollected, &i.DepositAmount, &i.Notes, &i.Report,
		&i.Status, &i.SubmittedAt, &i.CreatedAt,
	)
}

// rowScanner is the minimal scan surface shared by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const createCashSummary = `-- name: CreateCashSummary :one
INSERT INTO cash_summaries (
	site, business_date, shift_number, fuel_sales, merch_sales,
	cash_collected, card_collected, deposit_amount, notes
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + cashSummaryColumns

type CreateCashSummaryParams struct {
	Site          string
	BusinessDate  time.Time
	ShiftNumber   int32
	FuelSales     pgtype.Numeric
	MerchSales    pgtype.Numeric
	CashCollected pgtype.Numeric
	CardCollected pgtype.Numeric
	DepositAmount pgtype.Numeric
	Notes         pgtype.Text
}

func (q *Queries) CreateCashSummary(ctx context.Context, arg CreateCashSummaryParams) (CashSummary, error) {
	row := q.db.QueryRow(ctx, createCashSummary,
		arg.Site, arg.BusinessDate, arg.ShiftNumber, arg.FuelSales, arg.MerchSales,
		arg.CashCollected, arg.CardCollected, arg.DepositAmount, arg.Notes,
	)
	var i CashSummary
	err := scanCashSummary(row, &i)
	return i, err
}

const getCashSummary = `-- name: GetCashSummary :one
SELECT ` + cashSummaryColumns + `
FROM cash_summaries
WHERE id = $1
`

func (q *Queries) GetCashSummary(ctx context.Context, id uuid.UUID) (CashSummary, error) {
	row := q.db.QueryRow(ctx, getCashSummary, id)
	var i CashSummary
	err := scanCashSummary(row, &i)
	return i, err
}

const listCashSummaries = `-- name: ListCashSummaries :many
SELECT ` + cashSummaryColumns + `
FROM cash_summaries
WHERE site = $1 AND business_date >= $2 AND business_date <= $3
ORDER BY business_date DESC, shift_number
`

type ListCashSummariesParams struct {
	Site string
	From time.Time
	To   time.Time
}

func (q *Queries) ListCashSummaries(ctx context.Context, arg ListCashSummariesParams) ([]CashSummary, error) {
	rows, err := q.db.Query(ctx, listCashSummaries, arg.Site, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CashSummary
	for rows.Next() {
		var i CashSummary
		if err := scanCashSummary(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const setCashSummaryReport = `-- name: SetCashSummaryReport :one
UPDATE cash_summaries SET report = $2
WHERE id = $1
RETURNING ` + cashSummaryColumns

type SetCashSummaryReportParams struct {
	ID     uuid.UUID
	Report []byte
}

func (q *Queries) SetCashSummaryReport(ctx context.Context, arg SetCashSummaryReportParams) (CashSummary, error) {
	row := q.db.QueryRow(ctx, setCashSummaryReport, arg.ID, arg.Report)
	var i CashSummary
	err := scanCashSummary(row, &i)
	return i, err
}

const submitCashSummary = `-- name: SubmitCashSummary :one
UPDATE cash_summaries SET status = 'SUBMITTED', submitted_at = now()
WHERE id = $1 AND status = 'DRAFT'
RETURNING ` + cashSummaryColumns

func (q *Queries) SubmitCashSummary(ctx context.Context, id uuid.UUID) (CashSummary, error) {
	row := q.db.QueryRow(ctx, submitCashSummary, id)
	var i CashSummary
	err := scanCashSummary(row, &i)
	return i, err
}
