package app

import (
	"context"
	"fmt"
	"time"

	"github.com/louisbranch/kindred/internal/platform/logging"
	"github.com/louisbranch/kindred/internal/services/lifecycle/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Deliverer hands a due consequence to the system that renders it.
type Deliverer interface {
	Deliver(ctx context.Context, consequence storage.ConsequenceRecord) error
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, consequence storage.ConsequenceRecord) error

// Deliver calls f.
func (f DelivererFunc) Deliver(ctx context.Context, consequence storage.ConsequenceRecord) error {
	return f(ctx, consequence)
}

// LogDeliverer writes consequences to the operator log at a bounded rate.
type LogDeliverer struct {
	logger  *zap.Logger
	limiter *rate.Limiter
}

// NewLogDeliverer returns a deliverer limited to perSecond deliveries; zero
// or less means unlimited.
func NewLogDeliverer(logger *zap.Logger, perSecond float64) *LogDeliverer {
	return &LogDeliverer{logger: logging.OrNop(logger), limiter: newLimiter(perSecond)}
}

// Deliver logs one consequence.
func (d *LogDeliverer) Deliver(ctx context.Context, consequence storage.ConsequenceRecord) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	d.logger.Info("consequence delivered",
		zap.String("consequence_id", consequence.ID),
		zap.String("kind", string(consequence.Kind)),
		zap.String("companion_id", consequence.CompanionID),
		zap.String("user_id", consequence.UserID),
		zap.Any("payload", consequence.Payload),
	)
	return nil
}

// RateLimited wraps next so deliveries never exceed perSecond.
func RateLimited(next Deliverer, perSecond float64) Deliverer {
	limiter := newLimiter(perSecond)
	return DelivererFunc(func(ctx context.Context, consequence storage.ConsequenceRecord) error {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		return next.Deliver(ctx, consequence)
	})
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := max(int(perSecond), 1)
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// ResolveConsequences delivers every pending consequence due on or before
// runDate and returns how many were delivered. Failed deliveries stay pending
// until they exhaust their attempts; paging moves past them so one failing
// page never hides later consequences.
func (b *Batch) ResolveConsequences(ctx context.Context, runDate time.Time) (int, error) {
	ctx, span := b.tracer.Start(ctx, "lifecycle.consequences")
	defer span.End()

	delivered := 0
	var cursor *storage.ConsequenceCursor
	for {
		due, err := b.store.ListDueConsequences(ctx, runDate, cursor, b.cfg.ConsequencePageSize)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "list due consequences")
			return delivered, fmt.Errorf("list due consequences: %w", err)
		}
		for _, consequence := range due {
			if err := b.deliver(ctx, consequence); err != nil {
				if ctx.Err() != nil {
					return delivered, ctx.Err()
				}
				continue
			}
			delivered++
		}
		if len(due) < b.cfg.ConsequencePageSize {
			break
		}
		cursor = storage.CursorOf(due[len(due)-1])
	}
	span.SetAttributes(attribute.Int("lifecycle.consequences_delivered", delivered))
	return delivered, nil
}

func (b *Batch) deliver(ctx context.Context, consequence storage.ConsequenceRecord) error {
	logger := b.logger.With(
		zap.String("consequence_id", consequence.ID),
		zap.String("kind", string(consequence.Kind)),
		zap.String("companion_id", consequence.CompanionID),
	)
	if err := b.deliverer.Deliver(ctx, consequence); err != nil {
		logger.Warn("consequence delivery failed", zap.Int("attempt", consequence.Attempts+1), zap.Error(err))
		if markErr := b.store.MarkConsequenceFailed(context.WithoutCancel(ctx), consequence.ID, err.Error(), b.cfg.MaxDeliveryAttempts); markErr != nil {
			logger.Error("record delivery failure", zap.Error(markErr))
		}
		return err
	}
	if err := b.store.MarkConsequenceDelivered(ctx, consequence.ID, b.clock().UTC()); err != nil {
		logger.Error("mark consequence delivered", zap.Error(err))
		return err
	}
	return nil
}
