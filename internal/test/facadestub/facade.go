// Package facadestub provides controllable facades for HTTP layer tests.
package facadestub

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/lotteryengine/internal/draw"
	"github.com/polkiloo/lotteryengine/internal/usecase"
)

// Lottery simulates the engine behind the HTTP handlers.
type Lottery struct {
	RunDrawsFn    func(context.Context) (*usecase.DrawSummary, error)
	DrawRoundFn   func(context.Context, uuid.UUID) (*usecase.DrawResult, error)
	VerifyRoundFn func(context.Context, uuid.UUID) (*draw.Verification, error)
	ReclaimFn     func(context.Context) (*usecase.ReclaimSummary, error)
	ReconcileFn   func(context.Context) (*usecase.ReconcileSummary, error)
	PingFn        func(context.Context) error
}

// RunDraws returns configured summary or an empty run.
func (s Lottery) RunDraws(ctx context.Context) (*usecase.DrawSummary, error) {
	if s.RunDrawsFn != nil {
		return s.RunDrawsFn(ctx)
	}
	return &usecase.DrawSummary{}, nil
}

// DrawRound returns configured result or a fixed winner.
func (s Lottery) DrawRound(ctx context.Context, roundID uuid.UUID) (*usecase.DrawResult, error) {
	if s.DrawRoundFn != nil {
		return s.DrawRoundFn(ctx, roundID)
	}
	return &usecase.DrawResult{RoundID: roundID, RoundNumber: 1, WinnerUserID: uuid.Nil, WinningNumber: 10000001, DrawTime: time.Unix(0, 0)}, nil
}

// VerifyRound returns configured verification or a valid one.
func (s Lottery) VerifyRound(ctx context.Context, roundID uuid.UUID) (*draw.Verification, error) {
	if s.VerifyRoundFn != nil {
		return s.VerifyRoundFn(ctx, roundID)
	}
	return &draw.Verification{Valid: true}, nil
}

// ReleaseExpiredOrders returns configured summary or an empty run.
func (s Lottery) ReleaseExpiredOrders(ctx context.Context) (*usecase.ReclaimSummary, error) {
	if s.ReclaimFn != nil {
		return s.ReclaimFn(ctx)
	}
	return &usecase.ReclaimSummary{}, nil
}

// ReconcileSettlements returns configured summary or an empty run.
func (s Lottery) ReconcileSettlements(ctx context.Context) (*usecase.ReconcileSummary, error) {
	if s.ReconcileFn != nil {
		return s.ReconcileFn(ctx)
	}
	return &usecase.ReconcileSummary{}, nil
}

// Ping reports healthy storage unless overridden.
func (s Lottery) Ping(ctx context.Context) error {
	if s.PingFn != nil {
		return s.PingFn(ctx)
	}
	return nil
}
