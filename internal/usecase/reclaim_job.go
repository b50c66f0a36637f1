package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	domainErrors "github.com/polkiloo/lotteryengine/internal/domain/errors"
	"github.com/polkiloo/lotteryengine/internal/domain/model"
	"github.com/polkiloo/lotteryengine/internal/domain/repository"
	"github.com/polkiloo/lotteryengine/internal/telemetry"
)

// ReclaimSummary aggregates a reclamation run.
type ReclaimSummary struct {
	TotalFound     int
	Processed      int
	Successful     int
	Failed         int
	Skipped        int
	ProcessingTime time.Duration
	Results        []ReclaimResult
	Errors         []UnitError
}

// ReclaimJobConfig bounds one reclamation run.
type ReclaimJobConfig struct {
	BatchSize    int
	OrderTimeout time.Duration
}

// ReclaimJob releases stale pending orders one at a time.
type ReclaimJob struct {
	orders    repository.OrderRepository
	reclaimer *OrderReclaimer
	audit     *AuditTrail
	logger    *slog.Logger
	cfg       ReclaimJobConfig
	now       func() time.Time
}

// NewReclaimJob constructs ReclaimJob.
func NewReclaimJob(orders repository.OrderRepository, reclaimer *OrderReclaimer, audit *AuditTrail, logger *slog.Logger, cfg ReclaimJobConfig) *ReclaimJob {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.OrderTimeout <= 0 {
		cfg.OrderTimeout = 30 * time.Minute
	}
	return &ReclaimJob{orders: orders, reclaimer: reclaimer, audit: audit, logger: logger, cfg: cfg, now: time.Now}
}

// Run reclaims orders that stayed pending longer than OrderTimeout, oldest first.
func (j *ReclaimJob) Run(ctx context.Context) (*ReclaimSummary, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "reclaim.run")
	defer span.End()

	started := j.now()
	cutoff := started.Add(-j.cfg.OrderTimeout)
	orders, err := j.orders.ListExpired(ctx, cutoff, j.cfg.BatchSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list expired orders")
		return nil, fmt.Errorf("list expired orders: %w", err)
	}
	span.SetAttributes(attribute.Int("orders.found", len(orders)))

	// Cancellation is checked between orders only. A started saga finishes
	// on unitCtx.
	unitCtx := context.WithoutCancel(ctx)
	summary := &ReclaimSummary{TotalFound: len(orders)}
	for _, order := range orders {
		if ctx.Err() != nil {
			j.logger.Warn("reclaim run interrupted", slog.Int("remaining", len(orders)-summary.Processed))
			break
		}

		result, err := j.reclaimer.Reclaim(unitCtx, order.ID)
		summary.Processed++
		switch {
		case err == nil:
			summary.Successful++
			summary.Results = append(summary.Results, *result)
		case errors.Is(err, domainErrors.ErrNotEligible):
			summary.Skipped++
			j.logger.Info("order no longer eligible for reclamation",
				slog.String("order_id", order.ID.String()),
				slog.String("reason", err.Error()))
		default:
			summary.Failed++
			if len(summary.Errors) < maxReportedErrors {
				summary.Errors = append(summary.Errors, UnitError{
					ID:      order.ID,
					Label:   order.OrderNumber,
					Message: err.Error(),
					At:      j.now().UTC(),
				})
			}
		}
	}
	summary.ProcessingTime = j.now().Sub(started)

	j.logger.Info("reclaim run completed",
		slog.Int("found", summary.TotalFound),
		slog.Int("successful", summary.Successful),
		slog.Int("failed", summary.Failed),
		slog.Int("skipped", summary.Skipped),
		slog.Duration("elapsed", summary.ProcessingTime))
	j.audit.Record(unitCtx, AuditEntry{
		AffectedID: "reclaim-job",
		EventType:  EventReclaimBatchCompleted,
		Severity:   model.SeverityInfo,
		Data: map[string]any{
			"totalFound":       summary.TotalFound,
			"processed":        summary.Processed,
			"successful":       summary.Successful,
			"failed":           summary.Failed,
			"skipped":          summary.Skipped,
			"processingTimeMs": summary.ProcessingTime.Milliseconds(),
			"cutoff":           cutoff.UTC(),
		},
	})
	return summary, nil
}
