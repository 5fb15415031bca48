package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Gen7Fuel/thehub-sub000/internal/database"
	sftpclient "github.com/Gen7Fuel/thehub-sub000/internal/sftp"
)

// ReportSyncStore defines the database methods the nightly report sync
// needs.
type ReportSyncStore interface {
	ListSites(ctx context.Context) ([]database.Site, error)
	ListCashSummaries(ctx context.Context, arg database.ListCashSummariesParams) ([]database.CashSummary, error)
	SetCashSummaryReport(ctx context.Context, arg database.SetCashSummaryReportParams) (database.CashSummary, error)
}

// ReportDir is where the point-of-sale drops shift reports.
const ReportDir = "/reports"

// ReportSync pulls the previous day's SFT/BR shift reports for every
// configured site and attaches the parsed figures to the matching cash
// summaries. Sites without SFTP credentials are skipped quietly; a
// failing site never stops the rest of the run.
type ReportSync struct {
	store   ReportSyncStore
	factory *sftpclient.Factory
	logger  *zap.Logger
}

func NewReportSync(store ReportSyncStore, factory *sftpclient.Factory, logger *zap.Logger) *ReportSync {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportSync{store: store, factory: factory, logger: logger}
}

// Run syncs every site for the given business day.
func (r *ReportSync) Run(ctx context.Context, day time.Time) {
	sites, err := r.store.ListSites(ctx)
	if err != nil {
		r.logger.Error("list sites", zap.Error(err))
		return
	}
	for _, site := range sites {
		if err := r.SyncSite(ctx, site.Code, day); err != nil {
			if _, notConfigured := err.(sftpclient.ErrSiteNotConfigured); notConfigured {
				continue
			}
			r.logger.Error("report sync failed", zap.String("site", site.Code), zap.Error(err))
		}
	}
}

// SyncSite fetches and attaches the day's reports for one site.
func (r *ReportSync) SyncSite(ctx context.Context, site string, day time.Time) error {
	client, err := r.factory.ForSite(site)
	if err != nil {
		return err
	}

	files, err := client.List(ctx, ReportDir)
	if err != nil {
		return fmt.Errorf("list reports: %w", err)
	}

	dayTag := day.Format("20060102")
	summaries, err := r.store.ListCashSummaries(ctx, database.ListCashSummariesParams{
		Site: site,
		From: day.AddDate(0, 0, -1),
		To:   day.AddDate(0, 0, 1),
	})
	if err != nil {
		return fmt.Errorf("list summaries: %w", err)
	}

	for _, f := range files {
		if !matchesReportFile(f.Name, dayTag) {
			continue
		}
		data, err := client.Fetch(ctx, ReportDir, f.Name)
		if err != nil {
			r.logger.Warn("fetch report", zap.String("file", f.Name), zap.Error(err))
			continue
		}
		report, err := sftpclient.ParseShiftReport(string(data))
		if err != nil {
			r.logger.Warn("parse report", zap.String("file", f.Name), zap.Error(err))
			continue
		}
		r.attach(ctx, summaries, report)
	}
	return nil
}

// matchesReportFile keeps SFT/BR files stamped with the day.
func matchesReportFile(name, dayTag string) bool {
	upper := strings.ToUpper(name)
	if !strings.HasPrefix(upper, "SFT") && !strings.HasPrefix(upper, "BR") {
		return false
	}
	return strings.Contains(name, dayTag)
}

func (r *ReportSync) attach(ctx context.Context, summaries []database.CashSummary, report *sftpclient.ShiftReport) {
	for _, s := range summaries {
		if !sameDay(s.BusinessDate, report.BusinessDate) {
			continue
		}
		if report.ShiftNumber != 0 && int32(report.ShiftNumber) != s.ShiftNumber {
			continue
		}
		payload, err := json.Marshal(report)
		if err != nil {
			return
		}
		if _, err := r.store.SetCashSummaryReport(ctx, database.SetCashSummaryReportParams{
			ID:     s.ID,
			Report: payload,
		}); err != nil {
			r.logger.Warn("attach report", zap.String("summary", s.ID.String()), zap.Error(err))
		}
		return
	}
	r.logger.Info("report without matching summary",
		zap.String("site", report.Site),
		zap.String("date", report.BusinessDate.Format("2006-01-02")),
	)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
