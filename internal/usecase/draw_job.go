package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	domainErrors "github.com/polkiloo/lotteryengine/internal/domain/errors"
	"github.com/polkiloo/lotteryengine/internal/domain/model"
	"github.com/polkiloo/lotteryengine/internal/domain/repository"
	"github.com/polkiloo/lotteryengine/internal/draw"
	"github.com/polkiloo/lotteryengine/internal/telemetry"
)

// maxReportedErrors bounds the per-unit error list of a job summary.
const maxReportedErrors = 50

// UnitError describes one failed unit of a batch job.
type UnitError struct {
	ID      uuid.UUID
	Label   string
	Message string
	At      time.Time
}

// DrawResult describes one drawn round.
type DrawResult struct {
	RoundID       uuid.UUID
	RoundNumber   int
	WinnerUserID  uuid.UUID
	WinningNumber int
	DrawTime      time.Time
	FailedSteps   []model.SettlementStep
}

// DrawSummary aggregates a draw run.
type DrawSummary struct {
	TotalFound int
	Processed  int
	Successful int
	Failed     int
	Skipped    int
	Results    []DrawResult
	Errors     []UnitError
}

// DrawJobConfig bounds one draw run.
type DrawJobConfig struct {
	BatchSize  int
	GroupSize  int
	GroupPause time.Duration
}

type unitStatus int

const (
	unitPending unitStatus = iota
	unitSucceeded
	unitSkipped
	unitFailed
)

type drawOutcome struct {
	status unitStatus
	result *DrawResult
	err    error
}

// DrawJob finds drawable rounds and settles each of them independently.
type DrawJob struct {
	rounds    repository.RoundRepository
	validator *RoundValidator
	drawer    *draw.Drawer
	committer *SettlementCommitter
	audit     *AuditTrail
	logger    *slog.Logger
	cfg       DrawJobConfig
	now       func() time.Time
	sleep     func(context.Context, time.Duration) error
}

// NewDrawJob constructs DrawJob.
func NewDrawJob(rounds repository.RoundRepository, validator *RoundValidator, drawer *draw.Drawer, committer *SettlementCommitter, audit *AuditTrail, logger *slog.Logger, cfg DrawJobConfig) *DrawJob {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.GroupSize <= 0 {
		cfg.GroupSize = 3
	}
	return &DrawJob{
		rounds:    rounds,
		validator: validator,
		drawer:    drawer,
		committer: committer,
		audit:     audit,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// Run draws up to BatchSize eligible rounds, GroupSize at a time with a pause
// between groups. Only a failure to list rounds is returned as an error.
func (j *DrawJob) Run(ctx context.Context) (*DrawSummary, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "draw.run")
	defer span.End()

	rounds, err := j.rounds.ListDrawable(ctx, j.cfg.BatchSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list drawable rounds")
		return nil, fmt.Errorf("list drawable rounds: %w", err)
	}
	span.SetAttributes(attribute.Int("rounds.found", len(rounds)))

	// Cancellation stops the run only at group boundaries. Rounds already
	// started finish on unitCtx.
	unitCtx := context.WithoutCancel(ctx)
	outcomes := make([]drawOutcome, len(rounds))
	for start := 0; start < len(rounds); start += j.cfg.GroupSize {
		if start > 0 {
			if err := j.sleep(ctx, j.cfg.GroupPause); err != nil {
				j.logger.Warn("draw run interrupted", slog.Int("remaining", len(rounds)-start))
				break
			}
		}
		end := min(start+j.cfg.GroupSize, len(rounds))

		var g errgroup.Group
		g.SetLimit(j.cfg.GroupSize)
		for i := start; i < end; i++ {
			g.Go(func() error {
				outcomes[i] = j.drawUnit(unitCtx, rounds[i])
				return nil
			})
		}
		_ = g.Wait()
	}

	summary := j.summarize(rounds, outcomes)
	j.logger.Info("draw run completed",
		slog.Int("found", summary.TotalFound),
		slog.Int("successful", summary.Successful),
		slog.Int("failed", summary.Failed),
		slog.Int("skipped", summary.Skipped))
	j.audit.Record(unitCtx, AuditEntry{
		AffectedID: "draw-job",
		EventType:  EventDrawBatchCompleted,
		Severity:   model.SeverityInfo,
		Data: map[string]int{
			"totalFound": summary.TotalFound,
			"processed":  summary.Processed,
			"successful": summary.Successful,
			"failed":     summary.Failed,
			"skipped":    summary.Skipped,
		},
	})
	return summary, nil
}

// DrawRound draws a single round through the same pipeline as Run.
func (j *DrawJob) DrawRound(ctx context.Context, roundID uuid.UUID) (*DrawResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "draw.round")
	defer span.End()
	span.SetAttributes(attribute.String("round.id", roundID.String()))

	result, err := j.drawRound(ctx, roundID)
	if err != nil {
		span.RecordError(err)
	}
	return result, err
}

func (j *DrawJob) drawUnit(ctx context.Context, round model.Round) drawOutcome {
	result, err := j.drawRound(ctx, round.ID)
	if err == nil {
		return drawOutcome{status: unitSucceeded, result: result}
	}
	if isSkip(err) {
		return drawOutcome{status: unitSkipped, err: err}
	}
	return drawOutcome{status: unitFailed, err: err}
}

// isSkip reports benign outcomes: the round was not eligible or another
// worker settled it first.
func isSkip(err error) bool {
	var rejection *RoundRejection
	if errors.As(err, &rejection) {
		return rejection.Reason != RejectInconsistent
	}
	var settlementErr *SettlementError
	if errors.As(err, &settlementErr) {
		return settlementErr.Kind == SettlementAlreadyProcessed
	}
	return false
}

func (j *DrawJob) drawRound(ctx context.Context, roundID uuid.UUID) (*DrawResult, error) {
	log := j.logger.With(slog.String("round_id", roundID.String()))

	validated, err := j.validator.Validate(ctx, roundID)
	if err != nil {
		var rejection *RoundRejection
		switch {
		case errors.As(err, &rejection) && rejection.Reason == RejectInconsistent:
			log.Error("round bookkeeping inconsistent", slog.String("detail", rejection.Detail))
			j.audit.Record(ctx, AuditEntry{
				AffectedID: roundID.String(),
				EventType:  EventRoundInconsistent,
				Severity:   model.SeverityCritical,
				Data:       map[string]string{"detail": rejection.Detail},
			})
		case errors.As(err, &rejection):
			log.Info("round skipped", slog.String("reason", string(rejection.Reason)))
		default:
			log.Error("round validation failed", slog.String("error", err.Error()))
		}
		return nil, err
	}

	rec, err := j.drawer.Draw(draw.Input{
		RoundID:          validated.Round.ID,
		ProductID:        validated.Round.ProductID,
		ParticipationIDs: validated.ParticipationIDs(),
		TotalShares:      validated.Round.TotalShares,
		NumberOffset:     j.drawer.NumberOffset(),
	})
	if err != nil {
		log.Error("draw computation failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("compute draw: %w", err)
	}

	winner, err := ResolveWinner(validated.Participations, rec.WinningNumber)
	if err != nil {
		log.Error("no participation holds the winning number", slog.Int("winning_number", rec.WinningNumber))
		j.audit.Record(ctx, AuditEntry{
			AffectedID: roundID.String(),
			EventType:  EventWinnerNotFound,
			Severity:   model.SeverityCritical,
			Data: map[string]any{
				"winningNumber":    rec.WinningNumber,
				"participantCount": len(validated.Participations),
				"totalShares":      validated.Round.TotalShares,
			},
		})
		return nil, err
	}

	outcome, err := j.committer.Commit(ctx, validated, winner, rec)
	if err != nil {
		var settlementErr *SettlementError
		if errors.As(err, &settlementErr) && settlementErr.Kind == SettlementAlreadyProcessed {
			log.Info("round already settled by another worker")
			return nil, err
		}
		log.Error("round settlement failed", slog.String("error", err.Error()))
		j.audit.Record(ctx, AuditEntry{
			AffectedID: roundID.String(),
			EventType:  EventDrawFailed,
			Severity:   model.SeverityError,
			Data:       map[string]string{"error": err.Error()},
		})
		return nil, err
	}

	log.Info("round drawn",
		slog.String("winner_user_id", outcome.WinnerUserID.String()),
		slog.Int("winning_number", outcome.WinningNumber),
		slog.Int("failed_steps", len(outcome.FailedSteps)))
	j.audit.Record(ctx, AuditEntry{
		AffectedID: roundID.String(),
		EventType:  EventDrawCompleted,
		Severity:   model.SeverityInfo,
		Data: map[string]any{
			"roundNumber":      outcome.RoundNumber,
			"winnerUserId":     outcome.WinnerUserID,
			"winningNumber":    outcome.WinningNumber,
			"algorithmVersion": rec.AlgorithmVersion,
			"participantCount": rec.ParticipantCount,
			"failedSteps":      outcome.FailedSteps,
		},
	})

	return &DrawResult{
		RoundID:       outcome.RoundID,
		RoundNumber:   outcome.RoundNumber,
		WinnerUserID:  outcome.WinnerUserID,
		WinningNumber: outcome.WinningNumber,
		DrawTime:      outcome.DrawTime,
		FailedSteps:   outcome.FailedSteps,
	}, nil
}

func (j *DrawJob) summarize(rounds []model.Round, outcomes []drawOutcome) *DrawSummary {
	summary := &DrawSummary{TotalFound: len(rounds)}
	for i, o := range outcomes {
		switch o.status {
		case unitPending:
			continue
		case unitSucceeded:
			summary.Successful++
			summary.Results = append(summary.Results, *o.result)
		case unitSkipped:
			summary.Skipped++
		case unitFailed:
			summary.Failed++
			if len(summary.Errors) < maxReportedErrors {
				summary.Errors = append(summary.Errors, UnitError{
					ID:      rounds[i].ID,
					Label:   fmt.Sprintf("round %d", rounds[i].RoundNumber),
					Message: o.err.Error(),
					At:      j.now().UTC(),
				})
			}
		}
		summary.Processed++
	}
	return summary
}

// IsNotFound reports whether err means the requested entity does not exist.
func IsNotFound(err error) bool {
	var rejection *RoundRejection
	if errors.As(err, &rejection) && rejection.Reason == RejectNotFound {
		return true
	}
	return errors.Is(err, domainErrors.ErrNotFound)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
