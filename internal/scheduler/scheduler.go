package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Gen7Fuel/thehub-sub000/internal/service"
)

// Scheduler owns the cron jobs that run outside any request: today just
// the nightly shift-report sync.
type Scheduler struct {
	cron   *cron.Cron
	sync   *service.ReportSync
	logger *zap.Logger
}

func New(sync *service.ReportSync, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{cron: cron.New(), sync: sync, logger: logger}
}

// Start registers the jobs and starts the cron loop. schedule is a
// standard five-field cron expression.
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		yesterday := time.Now().UTC().AddDate(0, 0, -1)
		s.logger.Info("report sync starting", zap.String("day", yesterday.Format("2006-01-02")))
		s.sync.Run(ctx, yesterday)
		s.logger.Info("report sync finished")
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
