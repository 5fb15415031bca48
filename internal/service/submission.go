package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Gen7Fuel/thehub-sub000/internal/database"
	"github.com/Gen7Fuel/thehub-sub000/internal/enum"
	"github.com/Gen7Fuel/thehub-sub000/internal/ledger"
	"github.com/Gen7Fuel/thehub-sub000/internal/tasks"
	"github.com/Gen7Fuel/thehub-sub000/internal/ws"
)

// SubmissionStore defines the database methods the submission flow
// needs.
type SubmissionStore interface {
	SubmitCashSummary(ctx context.Context, id uuid.UUID) (database.CashSummary, error)
	GetOrCreateSafesheet(ctx context.Context, site string) (database.Safesheet, error)
	ListSafesheetEntries(ctx context.Context, safesheetID uuid.UUID) ([]database.SafesheetEntry, error)
	FindEntryByDescriptionAndDay(ctx context.Context, arg database.FindEntryByDescriptionAndDayParams) (database.SafesheetEntry, error)
	CreateSafesheetEntry(ctx context.Context, arg database.CreateSafesheetEntryParams) (database.SafesheetEntry, error)
	UpdateSafesheetEntry(ctx context.Context, arg database.UpdateSafesheetEntryParams) (database.SafesheetEntry, error)
}

// SummaryMailer is satisfied by *mailer.Mailer.
type SummaryMailer interface {
	SendSubmissionSummary(to, site, businessDate, deposit, cashOnHand string) error
}

// Broadcaster is satisfied by *ws.Hub.
type Broadcaster interface {
	BroadcastToSite(site string, event ws.Event)
}

// Submission coordinates the side effects of submitting a cash
// summary: the submission itself is the only synchronous write; the
// Daily Deposit ledger upsert and the summary email ride the task
// queue, and a failure in either never rolls the submission back.
type Submission struct {
	store  SubmissionStore
	queue  *tasks.Queue
	mailer SummaryMailer
	hub    Broadcaster
	logger *zap.Logger
}

func NewSubmission(store SubmissionStore, queue *tasks.Queue, mailer SummaryMailer, hub Broadcaster, logger *zap.Logger) *Submission {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submission{store: store, queue: queue, mailer: mailer, hub: hub, logger: logger}
}

// Submit marks the summary submitted and queues its side effects.
// recipient may be empty, which skips the email.
func (s *Submission) Submit(ctx context.Context, id uuid.UUID, deposit decimal.Decimal, recipient string) (database.CashSummary, error) {
	summary, err := s.store.SubmitCashSummary(ctx, id)
	if err != nil {
		return database.CashSummary{}, err
	}

	site := summary.Site
	day := summary.BusinessDate

	s.queue.Enqueue(tasks.Task{
		Name: "daily-deposit-upsert",
		Run: func(ctx context.Context) error {
			return s.UpsertDailyDeposit(ctx, site, day, deposit)
		},
	})

	if recipient != "" {
		s.queue.Enqueue(tasks.Task{
			Name: "submission-email",
			Run: func(ctx context.Context) error {
				cashOnHand, err := s.currentBalance(ctx, site)
				if err != nil {
					return err
				}
				return s.mailer.SendSubmissionSummary(
					recipient, site, day.Format("2006-01-02"),
					deposit.StringFixed(2), cashOnHand.StringFixed(2),
				)
			},
		})
	}

	if s.hub != nil {
		payload, err := json.Marshal(map[string]string{
			"summary_id":    summary.ID.String(),
			"business_date": day.Format("2006-01-02"),
			"deposit":       deposit.StringFixed(2),
		})
		if err == nil {
			s.hub.BroadcastToSite(site, ws.Event{Type: "cash_summary.submitted", Payload: payload})
		}
	}

	return summary, nil
}

// UpsertDailyDeposit finds or creates the site's single Daily Deposit
// entry for the calendar day and sets its bank deposit amount.
func (s *Submission) UpsertDailyDeposit(ctx context.Context, site string, day time.Time, deposit decimal.Decimal) error {
	sheet, err := s.store.GetOrCreateSafesheet(ctx, site)
	if err != nil {
		return fmt.Errorf("safesheet for %s: %w", site, err)
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	amount, err := DecimalToNumeric(deposit)
	if err != nil {
		return err
	}

	existing, err := s.store.FindEntryByDescriptionAndDay(ctx, database.FindEntryByDescriptionAndDayParams{
		SafesheetID: sheet.ID,
		Description: enum.EntryDescriptionDailyDeposit,
		DayStart:    dayStart,
		DayEnd:      dayEnd,
	})
	if err == nil {
		_, err = s.store.UpdateSafesheetEntry(ctx, database.UpdateSafesheetEntryParams{
			ID:              existing.ID,
			SafesheetID:     sheet.ID,
			CashDepositBank: amount,
		})
		return err
	}

	_, err = s.store.CreateSafesheetEntry(ctx, database.CreateSafesheetEntryParams{
		SafesheetID:     sheet.ID,
		EntryDate:       dayStart,
		Description:     enum.EntryDescriptionDailyDeposit,
		CashIn:          zeroNumeric(),
		CashExpenseOut:  zeroNumeric(),
		CashDepositBank: amount,
	})
	return err
}

// CreateSafePayout appends the "Payout - {vendor}" entry recorded when
// a payable is paid out of the safe.
func (s *Submission) CreateSafePayout(ctx context.Context, site, vendorName string, day time.Time, amount decimal.Decimal) error {
	sheet, err := s.store.GetOrCreateSafesheet(ctx, site)
	if err != nil {
		return fmt.Errorf("safesheet for %s: %w", site, err)
	}
	out, err := DecimalToNumeric(amount)
	if err != nil {
		return err
	}
	_, err = s.store.CreateSafesheetEntry(ctx, database.CreateSafesheetEntryParams{
		SafesheetID:     sheet.ID,
		EntryDate:       time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()),
		Description:     enum.EntryDescriptionPayoutPrefix + vendorName,
		CashIn:          zeroNumeric(),
		CashExpenseOut:  out,
		CashDepositBank: zeroNumeric(),
	})
	return err
}

func (s *Submission) currentBalance(ctx context.Context, site string) (decimal.Decimal, error) {
	sheet, err := s.store.GetOrCreateSafesheet(ctx, site)
	if err != nil {
		return decimal.Zero, err
	}
	rows, err := s.store.ListSafesheetEntries(ctx, sheet.ID)
	if err != nil {
		return decimal.Zero, err
	}
	entries := make([]ledger.Entry, len(rows))
	for i, r := range rows {
		entries[i] = EntryFromRow(r)
	}
	return ledger.Current(NumericToDecimal(sheet.InitialBalance), entries), nil
}

func zeroNumeric() pgtype.Numeric {
	n, _ := DecimalToNumeric(decimal.Zero)
	return n
}
