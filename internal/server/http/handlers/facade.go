package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/polkiloo/lotteryengine/internal/draw"
	"github.com/polkiloo/lotteryengine/internal/usecase"
)

// DrawFacade exposes draw operations.
type DrawFacade interface {
	RunDraws(ctx context.Context) (*usecase.DrawSummary, error)
	DrawRound(ctx context.Context, roundID uuid.UUID) (*usecase.DrawResult, error)
	VerifyRound(ctx context.Context, roundID uuid.UUID) (*draw.Verification, error)
}

// ReclaimFacade exposes expired order reclamation.
type ReclaimFacade interface {
	ReleaseExpiredOrders(ctx context.Context) (*usecase.ReclaimSummary, error)
}

// ReconcileFacade exposes settlement reconciliation.
type ReconcileFacade interface {
	ReconcileSettlements(ctx context.Context) (*usecase.ReconcileSummary, error)
}

// HealthFacade checks backing storage.
type HealthFacade interface {
	Ping(ctx context.Context) error
}

// LotteryFacade aggregates the full set of operations used across handlers.
type LotteryFacade interface {
	DrawFacade
	ReclaimFacade
	ReconcileFacade
	HealthFacade
}
