package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/polkiloo/lotteryengine/internal/domain/model"
)

// RoundRepository describes persistence operations with rounds.
// Every mutation is conditional and reports whether a row was affected.
type RoundRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Round, error)
	// ListDrawable returns full rounds without a winner, oldest first.
	ListDrawable(ctx context.Context, limit int) ([]model.Round, error)
	// CompleteDraw applies WHERE status='full' AND winner_user_id IS NULL.
	CompleteDraw(ctx context.Context, params model.CompleteDrawParams) (bool, error)
	// UpdateSoldShares applies WHERE sold_shares=expected.
	UpdateSoldShares(ctx context.Context, id uuid.UUID, expected, next int) (bool, error)
}
