package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/lotteryengine/internal/domain/errors"
	"github.com/polkiloo/lotteryengine/internal/domain/model"
	"github.com/polkiloo/lotteryengine/internal/domain/repository"
)

// SettlementErrorKind classifies a failed primary settlement write.
type SettlementErrorKind string

const (
	SettlementAlreadyProcessed   SettlementErrorKind = "already_processed"
	SettlementPersistenceFailure SettlementErrorKind = "persistence_failure"
)

// SettlementError reports that the round was not moved to completed.
type SettlementError struct {
	RoundID uuid.UUID
	Kind    SettlementErrorKind
	Err     error
}

func (e *SettlementError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("settle round %s: %s", e.RoundID, e.Kind)
	}
	return fmt.Sprintf("settle round %s: %s: %v", e.RoundID, e.Kind, e.Err)
}

func (e *SettlementError) Unwrap() error {
	return e.Err
}

// SettlementOutcome describes a committed draw.
type SettlementOutcome struct {
	RoundID       uuid.UUID
	RoundNumber   int
	WinnerUserID  uuid.UUID
	WinningNumber int
	DrawTime      time.Time
	FailedSteps   []model.SettlementStep
}

// settlement is what every side effect needs to know about a completed round.
type settlement struct {
	round         model.Round
	winner        model.Participation
	winningNumber int
	drawTime      time.Time
}

type settlementNotes struct {
	RoundNumber   int       `json:"roundNumber"`
	WinningNumber int       `json:"winningNumber"`
	DrawTime      time.Time `json:"drawTime"`
}

// SettlementCommitter performs the terminal transition of a drawn round
// followed by its best-effort side effects.
type SettlementCommitter struct {
	rounds         repository.RoundRepository
	participations repository.ParticipationRepository
	orders         repository.OrderRepository
	products       repository.ProductRepository
	ledger         repository.LedgerRepository
	notifications  repository.NotificationRepository
	followups      repository.FollowupRepository
	audit          *AuditTrail
	logger         *slog.Logger
	now            func() time.Time
}

// NewSettlementCommitter constructs SettlementCommitter.
func NewSettlementCommitter(repos repository.Factory, audit *AuditTrail, logger *slog.Logger) *SettlementCommitter {
	return &SettlementCommitter{
		rounds:         repos.Rounds(),
		participations: repos.Participations(),
		orders:         repos.Orders(),
		products:       repos.Products(),
		ledger:         repos.Ledger(),
		notifications:  repos.Notifications(),
		followups:      repos.Followups(),
		audit:          audit,
		logger:         logger,
		now:            time.Now,
	}
}

// Commit records the winner on the round. Only when that conditional write
// applies are the side effects attempted; each failed side effect is audited,
// queued for reconciliation and listed in the outcome.
func (c *SettlementCommitter) Commit(ctx context.Context, validated *ValidatedRound, winner *model.Participation, rec model.DrawRecord) (*SettlementOutcome, error) {
	round := validated.Round
	applied, err := c.rounds.CompleteDraw(ctx, model.CompleteDrawParams{
		RoundID:       round.ID,
		WinnerUserID:  winner.UserID,
		WinningNumber: rec.WinningNumber,
		DrawTime:      rec.Timestamp,
		Record:        rec,
	})
	if err != nil {
		return nil, &SettlementError{RoundID: round.ID, Kind: SettlementPersistenceFailure, Err: err}
	}
	if !applied {
		return nil, &SettlementError{RoundID: round.ID, Kind: SettlementAlreadyProcessed}
	}

	// The round is completed from here on. Side effects and their followups
	// must land even if the caller has gone away.
	ctx = context.WithoutCancel(ctx)
	s := settlement{round: round, winner: *winner, winningNumber: rec.WinningNumber, drawTime: rec.Timestamp}
	outcome := &SettlementOutcome{
		RoundID:       round.ID,
		RoundNumber:   round.RoundNumber,
		WinnerUserID:  winner.UserID,
		WinningNumber: rec.WinningNumber,
		DrawTime:      rec.Timestamp,
	}
	for _, step := range model.SettlementSteps {
		if err := c.applyStep(ctx, step, s); err != nil {
			c.recordSideEffectFailure(ctx, round.ID, step, err)
			outcome.FailedSteps = append(outcome.FailedSteps, step)
		}
	}
	return outcome, nil
}

// applyStep runs one side effect. Every step is safe to repeat.
func (c *SettlementCommitter) applyStep(ctx context.Context, step model.SettlementStep, s settlement) error {
	switch step {
	case model.StepMarkWinner:
		return c.markWinner(ctx, s)
	case model.StepSettlementOrder:
		return c.createSettlementOrder(ctx, s)
	case model.StepLedgerCredit:
		return c.creditLedger(ctx, s)
	case model.StepNotification:
		return c.notifyWinner(ctx, s)
	default:
		return fmt.Errorf("unknown settlement step %q", step)
	}
}

func (c *SettlementCommitter) markWinner(ctx context.Context, s settlement) error {
	if _, err := c.participations.MarkWinner(ctx, s.winner.ID); err != nil {
		return fmt.Errorf("mark winning participation: %w", err)
	}
	return nil
}

func (c *SettlementCommitter) createSettlementOrder(ctx context.Context, s settlement) error {
	_, err := c.orders.FindSettlement(ctx, s.round.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domainErrors.ErrNotFound) {
		return fmt.Errorf("look up settlement order: %w", err)
	}

	notes, err := json.Marshal(settlementNotes{
		RoundNumber:   s.round.RoundNumber,
		WinningNumber: s.winningNumber,
		DrawTime:      s.drawTime.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode settlement notes: %w", err)
	}

	productID := s.round.ProductID
	roundID := s.round.ID
	order := &model.Order{
		OrderNumber:       settlementOrderNumber(c.now()),
		UserID:            s.winner.UserID,
		ProductID:         &productID,
		RoundID:           &roundID,
		Type:              model.OrderTypeLotteryWin,
		Quantity:          1,
		TotalAmount:       decimal.Zero,
		Status:            model.OrderStatusPending,
		PaymentStatus:     model.PaymentStatusPaid,
		FulfillmentStatus: model.FulfillmentStatusPending,
		Notes:             string(notes),
	}
	if err := c.orders.CreateSettlement(ctx, order); err != nil && !errors.Is(err, domainErrors.ErrAlreadyExists) {
		return fmt.Errorf("create settlement order: %w", err)
	}
	return nil
}

func (c *SettlementCommitter) creditLedger(ctx context.Context, s settlement) error {
	exists, err := c.ledger.ExistsForRound(ctx, s.winner.UserID, s.round.ID, model.TransactionTypeLotteryWin)
	if err != nil {
		return fmt.Errorf("look up ledger credit: %w", err)
	}
	if exists {
		return nil
	}

	product, err := c.products.GetByID(ctx, s.round.ProductID)
	if err != nil {
		return fmt.Errorf("load product %s: %w", s.round.ProductID, err)
	}

	roundID := s.round.ID
	tx := &model.LedgerTransaction{
		UserID:      s.winner.UserID,
		Type:        model.TransactionTypeLotteryWin,
		Amount:      product.MarketPrice,
		BalanceType: model.BalanceTypeLotteryCoin,
		Description: fmt.Sprintf("Lottery win: %s, round %d, winning number %d", product.Name, s.round.RoundNumber, s.winningNumber),
		RoundID:     &roundID,
	}
	if err := c.ledger.CreateTransaction(ctx, tx); err != nil {
		return fmt.Errorf("credit ledger: %w", err)
	}
	return nil
}

func (c *SettlementCommitter) notifyWinner(ctx context.Context, s settlement) error {
	exists, err := c.notifications.ExistsForRound(ctx, s.winner.UserID, s.round.ID, model.NotificationTypeLotteryWin)
	if err != nil {
		return fmt.Errorf("look up notification: %w", err)
	}
	if exists {
		return nil
	}

	roundID := s.round.ID
	n := &model.Notification{
		UserID:  s.winner.UserID,
		Type:    model.NotificationTypeLotteryWin,
		Content: fmt.Sprintf("You won round %d with number %d. Please provide a shipping address.", s.round.RoundNumber, s.winningNumber),
		Status:  model.NotificationStatusPending,
		RoundID: &roundID,
	}
	if err := c.notifications.Enqueue(ctx, n); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

func (c *SettlementCommitter) recordSideEffectFailure(ctx context.Context, roundID uuid.UUID, step model.SettlementStep, cause error) {
	c.logger.Warn("settlement side effect failed",
		slog.String("round_id", roundID.String()),
		slog.String("step", string(step)),
		slog.String("error", cause.Error()))

	c.audit.Record(ctx, AuditEntry{
		AffectedID: roundID.String(),
		EventType:  EventSideEffectFailed,
		Severity:   model.SeverityWarning,
		Data: map[string]any{
			"roundId": roundID,
			"step":    step,
			"error":   cause.Error(),
		},
	})

	followup := &model.SettlementFollowup{RoundID: roundID, Step: step, LastError: cause.Error()}
	if err := c.followups.Open(ctx, followup); err != nil {
		c.logger.Error("open settlement followup failed",
			slog.String("round_id", roundID.String()),
			slog.String("step", string(step)),
			slog.String("error", err.Error()))
	}
}

// settlementOrderNumber builds LM<unix millis><8 random hex digits>.
func settlementOrderNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("LM%d%s", at.UnixMilli(), suffix)
}
