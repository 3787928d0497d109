package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	apperrors "github.com/louisbranch/kindred/internal/platform/errors"
	"github.com/louisbranch/kindred/internal/platform/logging"
	"github.com/louisbranch/kindred/internal/platform/otel"
	"github.com/louisbranch/kindred/internal/services/lifecycle/domain"
	"github.com/louisbranch/kindred/internal/services/lifecycle/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency         = 8
	defaultConsequencePageSize = 100
	defaultMaxDeliveryAttempts = 5
	defaultMaintenanceWeekday  = time.Monday
)

// Config tunes the daily batch.
type Config struct {
	// Concurrency bounds companions processed in parallel.
	Concurrency        int
	MaintenanceWeekday time.Weekday
	Rules              domain.Rules
	// ConsequencePageSize bounds one page of due consequences.
	ConsequencePageSize int
	MaxDeliveryAttempts int
}

// DefaultConfig returns the production batch settings.
func DefaultConfig() Config {
	return Config{
		Concurrency:         defaultConcurrency,
		MaintenanceWeekday:  defaultMaintenanceWeekday,
		Rules:               domain.DefaultRules(),
		ConsequencePageSize: defaultConsequencePageSize,
		MaxDeliveryAttempts: defaultMaxDeliveryAttempts,
	}
}

func (c Config) normalized() Config {
	defaults := DefaultConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = defaults.Concurrency
	}
	if c.Rules == (domain.Rules{}) {
		c.Rules = defaults.Rules
	}
	if c.ConsequencePageSize <= 0 {
		c.ConsequencePageSize = defaults.ConsequencePageSize
	}
	if c.MaxDeliveryAttempts <= 0 {
		c.MaxDeliveryAttempts = defaults.MaxDeliveryAttempts
	}
	return c
}

// Batch drives the daily lifecycle pipeline over every living companion.
type Batch struct {
	store     storage.Store
	deliverer Deliverer
	logger    *zap.Logger
	tracer    trace.Tracer
	clock     func() time.Time
	cfg       Config
	running   atomic.Bool
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithClock overrides the batch clock.
func WithClock(clock func() time.Time) BatchOption {
	return func(b *Batch) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// WithConfig overrides the batch settings.
func WithConfig(cfg Config) BatchOption {
	return func(b *Batch) {
		b.cfg = cfg.normalized()
	}
}

// WithDeliverer overrides consequence delivery.
func WithDeliverer(deliverer Deliverer) BatchOption {
	return func(b *Batch) {
		if deliverer != nil {
			b.deliverer = deliverer
		}
	}
}

// NewBatch builds a batch over store. Consequences are logged unless a
// deliverer is configured.
func NewBatch(store storage.Store, logger *zap.Logger, opts ...BatchOption) *Batch {
	logger = logging.OrNop(logger)
	b := &Batch{
		store:     store,
		deliverer: NewLogDeliverer(logger, 0),
		logger:    logger,
		tracer:    otel.Tracer(),
		clock:     time.Now,
		cfg:       DefaultConfig(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run processes every living companion for runDate. It fails only when the
// companion set cannot be loaded or the context ends; per-companion faults
// are logged and counted in Summary.Failed.
func (b *Batch) Run(ctx context.Context, runDate time.Time) (Summary, error) {
	if b == nil || b.store == nil {
		return Summary{}, fmt.Errorf("batch store is not configured")
	}
	if !b.running.CompareAndSwap(false, true) {
		return Summary{}, apperrors.New(apperrors.CodeBatchInProgress, "a daily batch is already running")
	}
	defer b.running.Store(false)

	runDate = domain.Day(runDate)
	summary := Summary{RunDate: domain.DateKey(runDate)}
	startedAt := b.clock().UTC()
	logger := b.logger.With(zap.String("run_date", summary.RunDate))

	ctx, span := b.tracer.Start(ctx, "lifecycle.batch", trace.WithAttributes(
		attribute.String("lifecycle.run_date", summary.RunDate),
	))
	defer span.End()

	expired, err := b.store.ExpireRequests(ctx, runDate)
	if err != nil {
		logger.Warn("expire requests failed", zap.Error(err))
	}
	summary.RequestsExpired = expired

	companions, err := b.store.ListLivingCompanions(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list companions")
		return summary, apperrors.Wrap(apperrors.CodeStorage, "list living companions", err)
	}
	logger.Info("daily batch started", zap.Int("companions", len(companions)))

	results := make([]companionResult, len(companions))
	scheduled := 0
	g := new(errgroup.Group)
	g.SetLimit(b.cfg.Concurrency)
	for i, companion := range companions {
		if ctx.Err() != nil {
			break
		}
		scheduled++
		g.Go(func() error {
			results[i] = b.processCompanion(ctx, companion, runDate)
			return nil
		})
	}
	_ = g.Wait()
	if unscheduled := len(companions) - scheduled; unscheduled > 0 {
		logger.Warn("daily batch interrupted before scheduling every companion", zap.Int("unscheduled", unscheduled))
	}

	// Only scheduled slots hold a result; the rest are zero values.
	for i, result := range results[:scheduled] {
		if result.err != nil {
			logger.Error("companion failed",
				zap.String("companion_id", companions[i].ID),
				zap.String("user_id", companions[i].UserID),
				zap.Error(result.err),
			)
		}
		summary = summary.add(result)
	}

	if ctx.Err() == nil {
		delivered, err := b.ResolveConsequences(ctx, runDate)
		if err != nil {
			logger.Warn("resolve consequences failed", zap.Error(err))
		}
		summary.ConsequencesProcessed = delivered

		reset, err := b.ResetExpiredFreezes(ctx)
		if err != nil {
			logger.Warn("reset streak freezes failed", zap.Error(err))
		}
		summary.FreezesReset = reset
	}

	b.recordRun(ctx, runDate, summary, startedAt, logger)
	span.SetAttributes(
		attribute.Int("lifecycle.processed", summary.Processed),
		attribute.Int("lifecycle.failed", summary.Failed),
	)
	logger.Info("daily batch finished",
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int("deaths", summary.Deaths),
		zap.Int("scars_added", summary.ScarsAdded),
	)
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch interrupted")
		return summary, err
	}
	return summary, nil
}

// processCompanion runs the pure pipeline for one companion and persists the
// result. Errors are returned in the result, never raised.
func (b *Batch) processCompanion(ctx context.Context, c domain.Companion, runDate time.Time) (result companionResult) {
	ctx, span := b.tracer.Start(ctx, "lifecycle.companion", trace.WithAttributes(
		attribute.String("lifecycle.companion_id", c.ID),
	))
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			result = companionResult{err: fmt.Errorf("panic processing companion: %v", r)}
		}
		if result.err != nil {
			span.RecordError(result.err)
			span.SetStatus(codes.Error, "companion failed")
		}
	}()

	if c.LastProcessedDate != nil && !c.LastProcessedDate.Before(runDate) {
		return companionResult{skipped: true}
	}

	now := b.clock().UTC()
	in := domain.DayInput{RunDate: runDate, Now: now}
	activityDate := in.ActivityDate()
	logs, err := b.store.ListBehaviorLogs(ctx, c.UserID, activityDate.AddDate(0, 0, -(domain.ActivityWindowDays-1)), activityDate)
	if err != nil {
		return companionResult{err: fmt.Errorf("load behavior logs: %w", err)}
	}
	in.Logs = logs

	next, outcome := domain.AdvanceDay(c, in, b.cfg.Rules)
	if outcome.Skipped() {
		return companionResult{skipped: true}
	}
	span.SetAttributes(attribute.String("lifecycle.branch", string(outcome.Branch)))
	result.outcome = outcome

	next, maintenance, err := domain.ApplyWeeklyMaintenance(next, domain.MaintenanceInput{
		RunDate: runDate,
		Weekday: b.cfg.MaintenanceWeekday,
	})
	if err != nil {
		return companionResult{err: err}
	}
	result.maintenance = maintenance.Result

	write := storage.DayWrite{
		Companion:    next,
		RunDate:      runDate,
		Scar:         outcome.Scar,
		Consequences: outcome.Consequences,
	}

	if next.State() == domain.LifeStateActive {
		open, err := b.store.CountOpenRequests(ctx, c.ID)
		if err != nil {
			return companionResult{err: fmt.Errorf("count open requests: %w", err)}
		}
		plan, err := domain.PlanDay(next, runDate, open)
		if err != nil {
			return companionResult{err: fmt.Errorf("plan day: %w", err)}
		}
		write.Rituals = plan.Rituals
		write.Requests = plan.Requests
		result.rituals = len(plan.Rituals)
		result.requests = len(plan.Requests)
	}

	streak, change, err := b.assessStreak(ctx, c.UserID, outcome.HadActivity, now)
	if err != nil {
		return companionResult{err: err}
	}
	if streak != nil {
		write.Streak = streak
		result.streakChange = change
	}

	if err := b.store.SaveDay(ctx, write); err != nil {
		if errors.Is(err, storage.ErrAlreadyProcessed) {
			return companionResult{skipped: true}
		}
		return companionResult{err: fmt.Errorf("save day: %w", err)}
	}

	b.logger.Debug("companion processed",
		zap.String("companion_id", c.ID),
		zap.String("user_id", c.UserID),
		zap.String("branch", string(outcome.Branch)),
		zap.Int("inactive_days", next.InactiveDays),
		zap.String("emotional_arc", string(next.EmotionalArc)),
	)
	return result
}

// assessStreak returns the updated streak when the day changed it.
func (b *Batch) assessStreak(ctx context.Context, userID string, active bool, now time.Time) (*domain.StreakState, domain.StreakChange, error) {
	streak, err := b.store.GetStreak(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.StreakUnchanged, nil
		}
		return nil, domain.StreakUnchanged, fmt.Errorf("load streak: %w", err)
	}
	if active {
		next, changed := domain.ClearStreakRisk(streak)
		if !changed {
			return nil, domain.StreakUnchanged, nil
		}
		return &next, domain.StreakUnchanged, nil
	}
	next, change := domain.AssessMissedDay(streak, now)
	if change == domain.StreakUnchanged {
		return nil, change, nil
	}
	return &next, change, nil
}

// ResetExpiredFreezes restores lapsed weekly streak-freeze grants.
func (b *Batch) ResetExpiredFreezes(ctx context.Context) (int, error) {
	now := b.clock().UTC()
	streaks, err := b.store.ListExpiredFreezeGrants(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list expired freeze grants: %w", err)
	}
	reset := 0
	for _, streak := range streaks {
		next, ok := domain.ResetExpiredFreeze(streak, now)
		if !ok {
			continue
		}
		if err := b.store.PutStreak(ctx, next); err != nil {
			return reset, fmt.Errorf("reset freeze for %s: %w", streak.UserID, err)
		}
		reset++
	}
	return reset, nil
}

func (b *Batch) recordRun(ctx context.Context, runDate time.Time, summary Summary, startedAt time.Time, logger *zap.Logger) {
	payload, err := json.Marshal(summary)
	if err != nil {
		logger.Warn("encode run summary failed", zap.Error(err))
		return
	}
	// history is written even when the run context has ended
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := b.store.RecordRun(recordCtx, storage.BatchRun{
		RunDate:    runDate,
		StartedAt:  startedAt,
		FinishedAt: b.clock().UTC(),
		Summary:    payload,
	}); err != nil {
		logger.Warn("record run failed", zap.Error(err))
	}
}
