package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/kindred/internal/platform/logging"
	"github.com/louisbranch/kindred/internal/platform/timeouts"
	"github.com/louisbranch/kindred/internal/services/lifecycle/domain"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSchedule fires the daily batch five minutes after UTC midnight.
const DefaultSchedule = "5 0 * * *"

// Scheduler triggers the daily batch on a cron schedule in UTC.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	logger  *zap.Logger
	clock   func() time.Time
	timeout time.Duration
}

// NewScheduler parses a standard five-field cron schedule and binds it to runner.
func NewScheduler(schedule string, runner Runner, logger *zap.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, fmt.Errorf("scheduler runner is required")
	}
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		schedule = DefaultSchedule
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		runner:  runner,
		logger:  logging.OrNop(logger),
		clock:   time.Now,
		timeout: timeouts.BatchRun,
	}
	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins firing in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running batch, up to
// timeouts.SchedulerStop.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(timeouts.SchedulerStop):
		s.logger.Warn("scheduler stop timed out waiting for batch")
	}
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	runDate := domain.Day(s.clock())
	summary, err := s.runner.Run(ctx, runDate)
	if err != nil {
		s.logger.Error("scheduled daily tick failed", zap.String("run_date", domain.DateKey(runDate)), zap.Error(err))
		return
	}
	s.logger.Info("scheduled daily tick finished",
		zap.String("run_date", summary.RunDate),
		zap.Int("processed", summary.Processed),
		zap.Int("failed", summary.Failed),
	)
}
