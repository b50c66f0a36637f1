package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/polkiloo/lotteryengine/internal/domain/model"
)

// ParticipationRepository describes persistence operations with participations.
type ParticipationRepository interface {
	ListByRound(ctx context.Context, roundID uuid.UUID) ([]model.Participation, error)
	// MarkWinner flips is_winner only when it is still false.
	MarkWinner(ctx context.Context, id uuid.UUID) (bool, error)
}
