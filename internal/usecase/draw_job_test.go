package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/lotteryengine/internal/domain/errors"
	"github.com/polkiloo/lotteryengine/internal/domain/model"
	"github.com/polkiloo/lotteryengine/internal/draw"
	"github.com/polkiloo/lotteryengine/internal/test"
)

func TestDrawJobSettlesSoldOutRound(t *testing.T) {
	h := newHarness()
	product, round, parts, userA, userB := h.twoUserRound()
	job := h.drawJob(fixedDrawer(t, round, parts, 10000007), DrawJobConfig{})

	summary, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalFound)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Successful)
	assert.Zero(t, summary.Failed)
	assert.Zero(t, summary.Skipped)
	require.Len(t, summary.Results, 1)

	result := summary.Results[0]
	assert.Equal(t, userB, result.WinnerUserID)
	assert.Equal(t, 10000007, result.WinningNumber)
	assert.Equal(t, 1, result.RoundNumber)
	assert.True(t, result.DrawTime.Equal(test.FixedTime))
	assert.Empty(t, result.FailedSteps)

	ctx := context.Background()
	stored, err := h.store.Rounds().GetByID(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoundStatusCompleted, stored.Status)
	require.NotNil(t, stored.WinnerUserID)
	assert.Equal(t, userB, *stored.WinnerUserID)
	require.NotNil(t, stored.WinningNumber)
	assert.Equal(t, 10000007, *stored.WinningNumber)
	require.NotNil(t, stored.DrawAlgorithmData)
	assert.Equal(t, draw.AlgorithmVersion, stored.DrawAlgorithmData.AlgorithmVersion)
	assert.Equal(t, 2, stored.DrawAlgorithmData.ParticipantCount)

	stakes, err := h.store.Participations().ListByRound(ctx, round.ID)
	require.NoError(t, err)
	for _, p := range stakes {
		assert.Equal(t, p.UserID == userB, p.IsWinner, "participation of %s", p.UserID)
	}
	assert.NotEqual(t, userA, *stored.WinnerUserID)

	order, err := h.store.Orders().FindSettlement(ctx, round.ID)
	require.NoError(t, err)
	assert.Equal(t, userB, order.UserID)
	assert.Equal(t, model.OrderTypeLotteryWin, order.Type)
	assert.Equal(t, 1, order.Quantity)
	assert.True(t, order.TotalAmount.IsZero())
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, model.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, model.FulfillmentStatusPending, order.FulfillmentStatus)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "LM"))
	require.NotNil(t, order.ProductID)
	assert.Equal(t, product.ID, *order.ProductID)
	var notes settlementNotes
	require.NoError(t, json.Unmarshal([]byte(order.Notes), &notes))
	assert.Equal(t, 10000007, notes.WinningNumber)
	assert.Equal(t, 1, notes.RoundNumber)

	txs := h.store.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, userB, txs[0].UserID)
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("999.90")))
	assert.Equal(t, model.BalanceTypeLotteryCoin, txs[0].BalanceType)
	assert.Equal(t, model.TransactionTypeLotteryWin, txs[0].Type)

	notifications := h.store.QueuedNotifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, userB, notifications[0].UserID)
	assert.Equal(t, model.NotificationTypeLotteryWin, notifications[0].Type)
	assert.Contains(t, notifications[0].Content, "10000007")

	assert.Equal(t, []string{EventDrawCompleted, EventDrawBatchCompleted}, h.eventTypes())
	assert.Empty(t, h.store.AllFollowups())

	verification, err := NewDrawVerifier(h.store.Rounds(), h.store.Participations()).Verify(ctx, round.ID)
	require.NoError(t, err)
	assert.True(t, verification.Valid, verification.Reason)
	assert.Equal(t, 10000007, verification.RecomputedWinningNumber)
}

func TestDrawJobExactlyOneWinnerPerRound(t *testing.T) {
	h := newHarness()
	product := test.SeedProduct(h.store, "Console", 3, "499.00")

	var rounds []model.Round
	for i := 1; i <= 20; i++ {
		users := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
		round, _ := test.SeedFullRound(h.store, product.ID, i, users, []int{i%4 + 1, 3, (i*7)%5 + 1})
		rounds = append(rounds, round)
	}

	job := h.drawJob(draw.NewDrawer(draw.DefaultNumberOffset), DrawJobConfig{BatchSize: 50, GroupSize: 4})
	summary, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, summary.TotalFound)
	assert.Equal(t, 20, summary.Successful)
	assert.Len(t, summary.Results, 20)

	ctx := context.Background()
	for _, r := range rounds {
		stored, err := h.store.Rounds().GetByID(ctx, r.ID)
		require.NoError(t, err)
		require.Equal(t, model.RoundStatusCompleted, stored.Status)
		require.NotNil(t, stored.WinningNumber)
		assert.GreaterOrEqual(t, *stored.WinningNumber, draw.DefaultNumberOffset)
		assert.Less(t, *stored.WinningNumber, draw.DefaultNumberOffset+r.TotalShares)

		parts, err := h.store.Participations().ListByRound(ctx, r.ID)
		require.NoError(t, err)
		winners := 0
		for _, p := range parts {
			if p.IsWinner {
				winners++
				assert.True(t, p.Holds(*stored.WinningNumber))
				assert.Equal(t, *stored.WinnerUserID, p.UserID)
			}
		}
		assert.Equal(t, 1, winners, "round %d", r.RoundNumber)
	}
	assert.Len(t, h.store.Transactions(), 20)
	assert.Len(t, h.store.QueuedNotifications(), 20)
}

func TestDrawJobConcurrentDrawsSettleOnce(t *testing.T) {
	h := newHarness()
	_, round, _, _, _ := h.twoUserRound()
	job := h.drawJob(draw.NewDrawer(draw.DefaultNumberOffset), DrawJobConfig{})

	const workers = 4
	var wg sync.WaitGroup
	results := make([]*DrawResult, workers)
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = job.DrawRound(context.Background(), round.ID)
		}()
	}
	wg.Wait()

	succeeded := 0
	for i := range workers {
		if errs[i] == nil {
			succeeded++
			require.NotNil(t, results[i])
			continue
		}
		assert.True(t, isSkip(errs[i]), "unexpected error: %v", errs[i])
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, h.store.Transactions(), 1)
	assert.Len(t, h.store.QueuedNotifications(), 1)
	assert.Len(t, h.events(EventDrawCompleted), 1)

	parts, err := h.store.Participations().ListByRound(context.Background(), round.ID)
	require.NoError(t, err)
	winners := 0
	for _, p := range parts {
		if p.IsWinner {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestDrawJobListFailure(t *testing.T) {
	h := newHarness()
	h.repos.RoundRepo = &test.RoundRepositoryStub{
		RoundRepository: h.store.Rounds(),
		ListDrawableFn: func(context.Context, int) ([]model.Round, error) {
			return nil, errors.New("db down")
		},
	}
	job := h.drawJob(draw.NewDrawer(0), DrawJobConfig{})

	summary, err := job.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.Contains(t, err.Error(), "db down")
	assert.Empty(t, h.store.AuditEvents())
}

func TestDrawJobPausesBetweenGroups(t *testing.T) {
	h := newHarness()
	product := test.SeedProduct(h.store, "Tablet", 1, "10")
	for i := 1; i <= 7; i++ {
		test.SeedFullRound(h.store, product.ID, i, []uuid.UUID{uuid.New()}, []int{2})
	}

	job := h.drawJob(draw.NewDrawer(0), DrawJobConfig{GroupSize: 3, GroupPause: time.Second})
	var pauses []time.Duration
	job.sleep = func(_ context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return nil
	}

	summary, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, summary.Successful)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, pauses)
}

func TestDrawJobStopsWhenPauseInterrupted(t *testing.T) {
	h := newHarness()
	product := test.SeedProduct(h.store, "Tablet", 1, "10")
	for i := 1; i <= 7; i++ {
		test.SeedFullRound(h.store, product.ID, i, []uuid.UUID{uuid.New()}, []int{2})
	}

	job := h.drawJob(draw.NewDrawer(0), DrawJobConfig{GroupSize: 3})
	job.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	summary, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, summary.TotalFound)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 3, summary.Successful)

	remaining, err := h.store.Rounds().ListDrawable(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, remaining, 4)
}

func TestDrawJobFinishesStartedGroupAfterCancel(t *testing.T) {
	h := newHarness()
	product := test.SeedProduct(h.store, "Tablet", 1, "10")
	for i := 1; i <= 5; i++ {
		test.SeedFullRound(h.store, product.ID, i, []uuid.UUID{uuid.New()}, []int{2})
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.repos.RoundRepo = &test.RoundRepositoryStub{
		RoundRepository: h.store.Rounds(),
		CompleteDrawFn: func(ctx context.Context, p model.CompleteDrawParams) (bool, error) {
			applied, err := h.store.Rounds().CompleteDraw(ctx, p)
			cancel()
			return applied, err
		},
	}
	h.repos.LedgerRepo = &test.LedgerRepositoryStub{
		LedgerRepository: h.store.Ledger(),
		CreateTransactionFn: func(ctx context.Context, tx *model.LedgerTransaction) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return h.store.Ledger().CreateTransaction(ctx, tx)
		},
	}

	job := h.drawJob(draw.NewDrawer(0), DrawJobConfig{GroupSize: 5})
	summary, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Successful)
	for _, r := range summary.Results {
		assert.Empty(t, r.FailedSteps)
	}
	assert.Len(t, h.store.Transactions(), 5)
	assert.Empty(t, h.store.AllFollowups())
	assert.Len(t, h.events(EventDrawBatchCompleted), 1)
}

func TestDrawJobIsolatesFailingRounds(t *testing.T) {
	h := newHarness()
	product := test.SeedProduct(h.store, "Camera", 2, "250")
	good, _ := test.SeedFullRound(h.store, product.ID, 1, []uuid.UUID{uuid.New(), uuid.New()}, []int{2, 2})
	broken, _ := test.SeedFullRound(h.store, product.ID, 2, []uuid.UUID{uuid.New()}, []int{3})
	undersold, _ := test.SeedFullRound(h.store, product.ID, 3, []uuid.UUID{uuid.New()}, []int{3})
	undersold.TotalShares = 5
	h.store.PutRound(undersold)
	inconsistent, stakes := test.SeedFullRound(h.store, product.ID, 4, []uuid.UUID{uuid.New()}, []int{3})
	stakes[0].Numbers = stakes[0].Numbers[:2]
	h.store.PutParticipation(stakes[0])

	h.repos.RoundRepo = &test.RoundRepositoryStub{
		RoundRepository: h.store.Rounds(),
		CompleteDrawFn: func(ctx context.Context, p model.CompleteDrawParams) (bool, error) {
			if p.RoundID == broken.ID {
				return false, errors.New("write timeout")
			}
			return h.store.Rounds().CompleteDraw(ctx, p)
		},
	}
	job := h.drawJob(draw.NewDrawer(0), DrawJobConfig{GroupSize: 2})

	summary, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalFound)
	assert.Equal(t, 4, summary.Processed)
	assert.Equal(t, 1, summary.Successful)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, good.ID, summary.Results[0].RoundID)

	require.Len(t, summary.Errors, 2)
	failedIDs := []uuid.UUID{summary.Errors[0].ID, summary.Errors[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{broken.ID, inconsistent.ID}, failedIDs)
	assert.Equal(t, "round 2", summary.Errors[0].Label)

	failed := h.events(EventDrawFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, broken.ID.String(), failed[0].AffectedID)
	assert.Equal(t, model.SeverityError, failed[0].Severity)

	critical := h.events(EventRoundInconsistent)
	require.Len(t, critical, 1)
	assert.Equal(t, model.SeverityCritical, critical[0].Severity)

	stored, err := h.store.Rounds().GetByID(context.Background(), broken.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoundStatusFull, stored.Status)
	assert.False(t, stored.HasWinner())
}

func TestDrawRoundWinnerNotFound(t *testing.T) {
	h := newHarness()
	_, round, _, _, _ := h.twoUserRound()
	job := h.drawJob(draw.NewDrawer(20000001), DrawJobConfig{})

	_, err := job.DrawRound(context.Background(), round.ID)
	require.ErrorIs(t, err, domainErrors.ErrNoWinnerFound)

	events := h.events(EventWinnerNotFound)
	require.Len(t, events, 1)
	assert.Equal(t, model.SeverityCritical, events[0].Severity)

	stored, err := h.store.Rounds().GetByID(context.Background(), round.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoundStatusFull, stored.Status)
	assert.False(t, stored.HasWinner())
	assert.Empty(t, h.store.Transactions())
}

func TestDrawRoundRejectsMissingAndCompletedRounds(t *testing.T) {
	h := newHarness()
	_, round, parts, _, _ := h.twoUserRound()
	job := h.drawJob(fixedDrawer(t, round, parts, 10000002), DrawJobConfig{})

	_, err := job.DrawRound(context.Background(), uuid.New())
	assert.True(t, IsNotFound(err))

	result, err := job.DrawRound(context.Background(), round.ID)
	require.NoError(t, err)
	assert.Equal(t, 10000002, result.WinningNumber)

	_, err = job.DrawRound(context.Background(), round.ID)
	var rejection *RoundRejection
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, RejectWrongState, rejection.Reason)
	assert.Len(t, h.store.Transactions(), 1)
}
