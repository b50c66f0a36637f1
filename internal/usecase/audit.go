package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/polkiloo/lotteryengine/internal/domain/model"
	"github.com/polkiloo/lotteryengine/internal/domain/repository"
)

// Audit event types.
const (
	EventDrawCompleted         = "draw_completed"
	EventDrawFailed            = "draw_failed"
	EventRoundInconsistent     = "round_inconsistent"
	EventWinnerNotFound        = "winner_not_found"
	EventSideEffectFailed      = "side_effect_failed"
	EventDrawBatchCompleted    = "draw_batch_completed"
	EventProductNotFound       = "product_not_found"
	EventRoundNotFound         = "round_not_found"
	EventRollbackFailed        = "rollback_failed"
	EventOrderReleased         = "order_released"
	EventOrderReleaseFailed    = "order_release_failed"
	EventReclaimBatchCompleted = "reclaim_batch_completed"
	EventFollowupResolved      = "followup_resolved"
	EventFollowupAbandoned     = "followup_abandoned"
)

// AuditEntry is a structured event before serialization.
type AuditEntry struct {
	AffectedID string
	EventType  string
	Severity   model.Severity
	Data       any
}

// AuditTrail appends events without ever failing the caller.
type AuditTrail struct {
	repo   repository.AuditRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewAuditTrail constructs AuditTrail.
func NewAuditTrail(repo repository.AuditRepository, logger *slog.Logger) *AuditTrail {
	return &AuditTrail{repo: repo, logger: logger, now: time.Now}
}

// Record serializes the payload and appends the event. Errors are logged and swallowed.
func (a *AuditTrail) Record(ctx context.Context, e AuditEntry) {
	data := json.RawMessage(`{}`)
	if e.Data != nil {
		payload, err := json.Marshal(e.Data)
		if err != nil {
			a.logger.Warn("audit payload not serializable",
				slog.String("event_type", e.EventType),
				slog.String("error", err.Error()))
		} else {
			data = payload
		}
	}

	event := &model.AuditEvent{
		AffectedID: e.AffectedID,
		EventType:  e.EventType,
		Severity:   e.Severity,
		EventData:  data,
		CreatedAt:  a.now().UTC(),
	}
	if err := a.repo.Append(ctx, event); err != nil {
		a.logger.Error("audit append failed",
			slog.String("event_type", e.EventType),
			slog.String("affected_id", e.AffectedID),
			slog.String("error", err.Error()))
	}
}
