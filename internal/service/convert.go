package service

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/Gen7Fuel/thehub-sub000/internal/database"
	"github.com/Gen7Fuel/thehub-sub000/internal/ledger"
)

// DecimalToNumeric converts a decimal amount to its pgtype form.
func DecimalToNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}

// NumericToDecimal converts a pgtype amount back to decimal; NULL and
// unparsable values come back as zero, matching how the wire layer
// renders them.
func NumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	s, ok := val.(string)
	if !ok {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// EntryFromRow converts a stored ledger row into the computation form.
func EntryFromRow(r database.SafesheetEntry) ledger.Entry {
	e := ledger.Entry{
		ID:              r.ID,
		Date:            r.EntryDate,
		Description:     r.Description,
		CashIn:          NumericToDecimal(r.CashIn),
		CashExpenseOut:  NumericToDecimal(r.CashExpenseOut),
		CashDepositBank: NumericToDecimal(r.CashDepositBank),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.Photo.Valid {
		e.Photo = r.Photo.String
	}
	if r.AssignedDate.Valid {
		t := r.AssignedDate.Time
		e.AssignedDate = &t
	}
	return e
}

// EntriesFromRows converts a full stored ledger.
func EntriesFromRows(rows []database.SafesheetEntry) []ledger.Entry {
	entries := make([]ledger.Entry, len(rows))
	for i, r := range rows {
		entries[i] = EntryFromRow(r)
	}
	return entries
}

// DayBounds returns [start, nextDay) for the calendar day containing t
// in the given location.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
