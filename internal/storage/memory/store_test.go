package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/lotteryengine/internal/domain/errors"
	"github.com/polkiloo/lotteryengine/internal/domain/model"
)

func TestRoundConditionalUpdates(t *testing.T) {
	ctx := context.Background()
	store := New()
	id := uuid.New()
	store.PutRound(model.Round{ID: id, TotalShares: 10, SoldShares: 10, Status: model.RoundStatusFull})
	rounds := store.Rounds()

	drawable, err := rounds.ListDrawable(ctx, 10)
	if err != nil || len(drawable) != 1 {
		t.Fatalf("expected one drawable round, got %d err=%v", len(drawable), err)
	}

	params := model.CompleteDrawParams{RoundID: id, WinnerUserID: uuid.New(), WinningNumber: 10000003, DrawTime: time.Now()}
	applied, err := rounds.CompleteDraw(ctx, params)
	if err != nil || !applied {
		t.Fatalf("expected first completion to apply, applied=%v err=%v", applied, err)
	}
	applied, err = rounds.CompleteDraw(ctx, params)
	if err != nil || applied {
		t.Fatalf("expected second completion to be ignored, applied=%v err=%v", applied, err)
	}

	got, _ := rounds.GetByID(ctx, id)
	if got.Status != model.RoundStatusCompleted || *got.WinningNumber != 10000003 {
		t.Fatalf("unexpected round: %+v", got)
	}

	if applied, _ := rounds.UpdateSoldShares(ctx, id, 9, 5); applied {
		t.Fatal("expected stale sold shares update to be ignored")
	}
	if applied, _ := rounds.UpdateSoldShares(ctx, id, 10, 7); !applied {
		t.Fatal("expected sold shares update to apply")
	}

	if _, err := rounds.GetByID(ctx, uuid.New()); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReturnedEntitiesAreCopies(t *testing.T) {
	ctx := context.Background()
	store := New()
	roundID := uuid.New()
	pid := uuid.New()
	store.PutParticipation(model.Participation{ID: pid, RoundID: roundID, SharesCount: 2, Numbers: []int{1, 2}})

	list, _ := store.Participations().ListByRound(ctx, roundID)
	list[0].Numbers[0] = 99

	again, _ := store.Participations().ListByRound(ctx, roundID)
	if again[0].Numbers[0] != 1 {
		t.Fatalf("expected stored numbers to be isolated, got %v", again[0].Numbers)
	}

	if applied, _ := store.Participations().MarkWinner(ctx, pid); !applied {
		t.Fatal("expected winner flag to apply")
	}
	if applied, _ := store.Participations().MarkWinner(ctx, pid); applied {
		t.Fatal("expected winner flag to apply once")
	}
}

func TestOrderTransitionsAndExpiry(t *testing.T) {
	ctx := context.Background()
	store := New()
	old := uuid.New()
	fresh := uuid.New()
	paid := uuid.New()
	now := time.Now()
	store.PutOrder(model.Order{ID: old, Status: model.OrderStatusPending, PaymentStatus: model.PaymentStatusPending, FulfillmentStatus: model.FulfillmentStatusPending, CreatedAt: now.Add(-time.Hour)})
	store.PutOrder(model.Order{ID: fresh, Status: model.OrderStatusPending, PaymentStatus: model.PaymentStatusPending, FulfillmentStatus: model.FulfillmentStatusPending, CreatedAt: now})
	store.PutOrder(model.Order{ID: paid, Status: model.OrderStatusPending, PaymentStatus: model.PaymentStatusPaid, FulfillmentStatus: model.FulfillmentStatusPending, CreatedAt: now.Add(-time.Hour)})

	expired, err := store.Orders().ListExpired(ctx, now.Add(-30*time.Minute), 100)
	if err != nil || len(expired) != 1 || expired[0].ID != old {
		t.Fatalf("expected only the old pending order, got %+v err=%v", expired, err)
	}

	applied, err := store.Orders().TransitionStatus(ctx, old, model.OrderStatePending, model.OrderStateExpired, "expired by system")
	if err != nil || !applied {
		t.Fatalf("expected transition to apply, applied=%v err=%v", applied, err)
	}
	applied, _ = store.Orders().TransitionStatus(ctx, old, model.OrderStatePending, model.OrderStateExpired, "again")
	if applied {
		t.Fatal("expected repeated transition to be ignored")
	}

	got, _ := store.Orders().GetByID(ctx, old)
	if got.State() != model.OrderStateExpired || got.Notes != "expired by system" {
		t.Fatalf("unexpected order: %+v", got)
	}

	applied, err = store.Orders().RestoreStatus(ctx, old, model.OrderStateExpired, model.OrderStatePending, "")
	if err != nil || !applied {
		t.Fatalf("expected restore to apply, applied=%v err=%v", applied, err)
	}
	got, _ = store.Orders().GetByID(ctx, old)
	if got.State() != model.OrderStatePending || got.Notes != "" {
		t.Fatalf("expected pending order with original notes, got %+v", got)
	}
	if applied, _ = store.Orders().RestoreStatus(ctx, old, model.OrderStateExpired, model.OrderStatePending, ""); applied {
		t.Fatal("expected restore from the wrong state to be ignored")
	}
}

func TestSettlementOrderIsUniquePerRound(t *testing.T) {
	ctx := context.Background()
	store := New()
	roundID := uuid.New()

	order := &model.Order{Type: model.OrderTypeLotteryWin, RoundID: &roundID}
	if err := store.Orders().CreateSettlement(ctx, order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID == uuid.Nil {
		t.Fatal("expected id to be assigned")
	}
	if err := store.Orders().CreateSettlement(ctx, &model.Order{Type: model.OrderTypeLotteryWin, RoundID: &roundID}); !errors.Is(err, domainErrors.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
	if _, err := store.Orders().FindSettlement(ctx, roundID); err != nil {
		t.Fatalf("expected settlement to be found: %v", err)
	}
	if _, err := store.Orders().FindSettlement(ctx, uuid.New()); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProductStockConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	store := New()
	id := uuid.New()
	store.PutProduct(model.Product{ID: id, Stock: 7})

	if applied, _ := store.Products().UpdateStock(ctx, id, 6, 9); applied {
		t.Fatal("expected stale stock update to be ignored")
	}
	if applied, _ := store.Products().UpdateStock(ctx, id, 7, 10); !applied {
		t.Fatal("expected stock update to apply")
	}
	p, _ := store.Products().GetByID(ctx, id)
	if p.Stock != 10 {
		t.Fatalf("expected stock 10, got %d", p.Stock)
	}
}

func TestLedgerNotificationsAndFollowups(t *testing.T) {
	ctx := context.Background()
	store := New()
	user := uuid.New()
	roundID := uuid.New()

	if err := store.Ledger().CreateTransaction(ctx, &model.LedgerTransaction{UserID: user, Type: model.TransactionTypeLotteryWin, RoundID: &roundID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok, _ := store.Ledger().ExistsForRound(ctx, user, roundID, model.TransactionTypeLotteryWin); !ok {
		t.Fatal("expected ledger entry to exist")
	}
	if err := store.Notifications().Enqueue(ctx, &model.Notification{UserID: user, Type: model.NotificationTypeLotteryWin, RoundID: &roundID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok, _ := store.Notifications().ExistsForRound(ctx, user, roundID, model.NotificationTypeLotteryWin); !ok {
		t.Fatal("expected notification to exist")
	}

	f := &model.SettlementFollowup{RoundID: roundID, Step: model.StepLedgerCredit}
	if err := store.Followups().Open(ctx, f); err != nil || f.ID == 0 {
		t.Fatalf("expected followup id, got %d err=%v", f.ID, err)
	}
	if err := store.Followups().RecordFailure(ctx, f.ID, "boom", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	open, _ := store.Followups().ListOpen(ctx, 10)
	if len(open) != 1 || open[0].Attempts != 1 {
		t.Fatalf("unexpected open followups: %+v", open)
	}
	if err := store.Followups().Resolve(ctx, f.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if open, _ := store.Followups().ListOpen(ctx, 10); len(open) != 0 {
		t.Fatalf("expected no open followups, got %d", len(open))
	}
	if err := store.Followups().Resolve(ctx, 42); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
