package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/polkiloo/lotteryengine/internal/domain/model"
	"github.com/polkiloo/lotteryengine/internal/domain/repository"
	"github.com/polkiloo/lotteryengine/internal/telemetry"
)

// ReconcileSummary aggregates a reconciliation run.
type ReconcileSummary struct {
	TotalFound int
	Resolved   int
	Retrying   int
	Abandoned  int
	Errors     []UnitError
}

// ReconcileConfig bounds one reconciliation run.
type ReconcileConfig struct {
	BatchSize   int
	MaxAttempts int
}

// SettlementReconciler retries failed settlement side effects of completed rounds.
type SettlementReconciler struct {
	followups      repository.FollowupRepository
	rounds         repository.RoundRepository
	participations repository.ParticipationRepository
	committer      *SettlementCommitter
	audit          *AuditTrail
	logger         *slog.Logger
	cfg            ReconcileConfig
	now            func() time.Time
}

// NewSettlementReconciler constructs SettlementReconciler.
func NewSettlementReconciler(repos repository.Factory, committer *SettlementCommitter, audit *AuditTrail, logger *slog.Logger, cfg ReconcileConfig) *SettlementReconciler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &SettlementReconciler{
		followups:      repos.Followups(),
		rounds:         repos.Rounds(),
		participations: repos.Participations(),
		committer:      committer,
		audit:          audit,
		logger:         logger,
		cfg:            cfg,
		now:            time.Now,
	}
}

// Run retries every open followup once. A followup that keeps failing is
// abandoned after MaxAttempts and raised as a critical audit event.
func (r *SettlementReconciler) Run(ctx context.Context) (*ReconcileSummary, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "reconcile.run")
	defer span.End()

	open, err := r.followups.ListOpen(ctx, r.cfg.BatchSize)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list open followups: %w", err)
	}
	span.SetAttributes(attribute.Int("followups.found", len(open)))

	unitCtx := context.WithoutCancel(ctx)
	summary := &ReconcileSummary{TotalFound: len(open)}
	for _, f := range open {
		if ctx.Err() != nil {
			break
		}
		r.reconcile(unitCtx, f, summary)
	}

	r.logger.Info("reconcile run completed",
		slog.Int("found", summary.TotalFound),
		slog.Int("resolved", summary.Resolved),
		slog.Int("retrying", summary.Retrying),
		slog.Int("abandoned", summary.Abandoned))
	return summary, nil
}

func (r *SettlementReconciler) reconcile(ctx context.Context, f model.SettlementFollowup, summary *ReconcileSummary) {
	log := r.logger.With(
		slog.Int64("followup_id", f.ID),
		slog.String("round_id", f.RoundID.String()),
		slog.String("step", string(f.Step)))

	cause := r.retry(ctx, f)
	if cause == nil {
		if err := r.followups.Resolve(ctx, f.ID); err != nil {
			log.Error("resolve followup failed", slog.String("error", err.Error()))
			return
		}
		summary.Resolved++
		log.Info("settlement step reconciled")
		r.audit.Record(ctx, AuditEntry{
			AffectedID: f.RoundID.String(),
			EventType:  EventFollowupResolved,
			Severity:   model.SeverityInfo,
			Data:       map[string]any{"followupId": f.ID, "step": f.Step, "attempts": f.Attempts + 1},
		})
		return
	}

	abandon := f.Attempts+1 >= r.cfg.MaxAttempts
	if err := r.followups.RecordFailure(ctx, f.ID, cause.Error(), abandon); err != nil {
		log.Error("record followup failure failed", slog.String("error", err.Error()))
	}
	if len(summary.Errors) < maxReportedErrors {
		summary.Errors = append(summary.Errors, UnitError{
			ID:      f.RoundID,
			Label:   string(f.Step),
			Message: cause.Error(),
			At:      r.now().UTC(),
		})
	}

	if !abandon {
		summary.Retrying++
		log.Warn("settlement step still failing", slog.Int("attempts", f.Attempts+1), slog.String("error", cause.Error()))
		return
	}
	summary.Abandoned++
	log.Error("settlement step abandoned", slog.Int("attempts", f.Attempts+1), slog.String("error", cause.Error()))
	r.audit.Record(ctx, AuditEntry{
		AffectedID: f.RoundID.String(),
		EventType:  EventFollowupAbandoned,
		Severity:   model.SeverityCritical,
		Data: map[string]any{
			"followupId": f.ID,
			"step":       f.Step,
			"attempts":   f.Attempts + 1,
			"error":      cause.Error(),
		},
	})
}

func (r *SettlementReconciler) retry(ctx context.Context, f model.SettlementFollowup) error {
	round, err := r.rounds.GetByID(ctx, f.RoundID)
	if err != nil {
		return fmt.Errorf("load round: %w", err)
	}
	if round.Status != model.RoundStatusCompleted || round.WinnerUserID == nil || round.WinningNumber == nil {
		return fmt.Errorf("round %s is not settled", round.ID)
	}

	participations, err := r.participations.ListByRound(ctx, round.ID)
	if err != nil {
		return fmt.Errorf("load participations: %w", err)
	}
	winner, err := ResolveWinner(participations, *round.WinningNumber)
	if err != nil {
		return err
	}
	if winner.UserID != *round.WinnerUserID {
		return fmt.Errorf("winning number %d is held by %s, round records %s", *round.WinningNumber, winner.UserID, *round.WinnerUserID)
	}

	drawTime := round.UpdatedAt
	if round.DrawTime != nil {
		drawTime = *round.DrawTime
	}
	return r.committer.applyStep(ctx, f.Step, settlement{
		round:         *round,
		winner:        *winner,
		winningNumber: *round.WinningNumber,
		drawTime:      drawTime,
	})
}
