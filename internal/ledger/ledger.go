package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SortMode selects which date attribute orders the ledger.
type SortMode int

const (
	// SortByDate orders entries by the calendar day they are attributed to.
	SortByDate SortMode = iota
	// SortByAssignedDate orders by the external posting date, falling
	// back to the entry date when no posting date is set.
	SortByAssignedDate
)

// Entry is one dated cash movement. CashOnHandSafe is derived by
// Compute and never persisted; a stored balance would go stale the
// moment any earlier entry's amount or date is edited.
type Entry struct {
	ID              uuid.UUID
	Date            time.Time
	AssignedDate    *time.Time
	Description     string
	CashIn          decimal.Decimal
	CashExpenseOut  decimal.Decimal
	CashDepositBank decimal.Decimal
	Photo           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CashOnHandSafe  decimal.Decimal
}

// DailyBalance is the end-of-day projection for one calendar day.
type DailyBalance struct {
	Day          time.Time
	Balance      decimal.Decimal
	DepositTotal decimal.Decimal
	EntryCount   int
}

func (e Entry) orderingDate(mode SortMode) time.Time {
	if mode == SortByAssignedDate && e.AssignedDate != nil {
		return *e.AssignedDate
	}
	return e.Date
}

// Compute returns the entries sorted ascending by the ordering date
// (ties broken by creation order) with the running balance attached to
// each. The accumulator starts at initialBalance; each entry adds its
// cash in and subtracts expense payouts and bank deposits.
func Compute(initialBalance decimal.Decimal, entries []Entry, mode SortMode) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)

	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].orderingDate(mode), out[j].orderingDate(mode)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	balance := initialBalance
	for i := range out {
		balance = balance.Add(out[i].CashIn).
			Sub(out[i].CashExpenseOut).
			Sub(out[i].CashDepositBank)
		out[i].CashOnHandSafe = balance
	}
	return out
}

// Current returns the balance after the last entry of the full
// unfiltered chronological ledger: cash on hand right now.
func Current(initialBalance decimal.Decimal, entries []Entry) decimal.Decimal {
	computed := Compute(initialBalance, entries, SortByDate)
	if len(computed) == 0 {
		return initialBalance
	}
	return computed[len(computed)-1].CashOnHandSafe
}

// FilterRange computes the full ledger and then keeps entries whose
// ordering date falls within [from 00:00:00, to 23:59:59] inclusive,
// in the given location. Balances reflect the whole ledger, not just
// the window.
func FilterRange(initialBalance decimal.Decimal, entries []Entry, from, to time.Time, mode SortMode, loc *time.Location) []Entry {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	end := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), loc)

	computed := Compute(initialBalance, entries, mode)
	filtered := make([]Entry, 0, len(computed))
	for _, e := range computed {
		d := e.orderingDate(mode)
		if !d.Before(start) && !d.After(end) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// DailyBalances aggregates the ledger per calendar day over [from, to]
// inclusive. Each day reports the balance after its last entry and the
// day's total bank deposit; a day with no entries carries the previous
// day's ending balance forward with a zero deposit.
func DailyBalances(initialBalance decimal.Decimal, entries []Entry, from, to time.Time, loc *time.Location) []DailyBalance {
	computed := Compute(initialBalance, entries, SortByDate)

	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, loc)
	if end.Before(start) {
		return nil
	}

	// Balance going into the first requested day is the balance after
	// every entry dated before it.
	balance := initialBalance
	idx := 0
	for idx < len(computed) && computed[idx].Date.In(loc).Before(start) {
		balance = computed[idx].CashOnHandSafe
		idx++
	}

	var days []DailyBalance
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		next := day.AddDate(0, 0, 1)
		deposit := decimal.Zero
		count := 0
		for idx < len(computed) {
			d := computed[idx].Date.In(loc)
			if d.Before(day) || !d.Before(next) {
				break
			}
			balance = computed[idx].CashOnHandSafe
			deposit = deposit.Add(computed[idx].CashDepositBank)
			count++
			idx++
		}
		days = append(days, DailyBalance{
			Day:          day,
			Balance:      balance,
			DepositTotal: deposit,
			EntryCount:   count,
		})
	}
	return days
}

// DefaultRange is the trailing seven days ending today in the given
// location, used when range parameters are absent or malformed.
func DefaultRange(now time.Time, loc *time.Location) (time.Time, time.Time) {
	today := now.In(loc)
	to := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	return to.AddDate(0, 0, -6), to
}
