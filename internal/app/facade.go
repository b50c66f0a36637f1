package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/polkiloo/lotteryengine/internal/draw"
	"github.com/polkiloo/lotteryengine/internal/usecase"
)

// HealthChecker reports whether the storage backend is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// LotteryFacade groups the engine's use cases behind the operations the
// HTTP layer and the scheduler need.
type LotteryFacade struct {
	draws      *usecase.DrawJob
	reclaims   *usecase.ReclaimJob
	reconciler *usecase.SettlementReconciler
	verifier   *usecase.DrawVerifier
	health     HealthChecker
}

func NewLotteryFacade(draws *usecase.DrawJob, reclaims *usecase.ReclaimJob, reconciler *usecase.SettlementReconciler, verifier *usecase.DrawVerifier, health HealthChecker) *LotteryFacade {
	return &LotteryFacade{draws: draws, reclaims: reclaims, reconciler: reconciler, verifier: verifier, health: health}
}

func (f *LotteryFacade) RunDraws(ctx context.Context) (*usecase.DrawSummary, error) {
	return f.draws.Run(ctx)
}

func (f *LotteryFacade) DrawRound(ctx context.Context, roundID uuid.UUID) (*usecase.DrawResult, error) {
	return f.draws.DrawRound(ctx, roundID)
}

func (f *LotteryFacade) VerifyRound(ctx context.Context, roundID uuid.UUID) (*draw.Verification, error) {
	return f.verifier.Verify(ctx, roundID)
}

func (f *LotteryFacade) ReleaseExpiredOrders(ctx context.Context) (*usecase.ReclaimSummary, error) {
	return f.reclaims.Run(ctx)
}

func (f *LotteryFacade) ReconcileSettlements(ctx context.Context) (*usecase.ReconcileSummary, error) {
	return f.reconciler.Run(ctx)
}

func (f *LotteryFacade) Ping(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}
