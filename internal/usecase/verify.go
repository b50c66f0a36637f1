package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/lotteryengine/internal/domain/errors"
	"github.com/polkiloo/lotteryengine/internal/domain/repository"
	"github.com/polkiloo/lotteryengine/internal/draw"
)

// DrawVerifier reproduces completed draws from their persisted records.
type DrawVerifier struct {
	rounds         repository.RoundRepository
	participations repository.ParticipationRepository
}

// NewDrawVerifier constructs DrawVerifier.
func NewDrawVerifier(rounds repository.RoundRepository, participations repository.ParticipationRepository) *DrawVerifier {
	return &DrawVerifier{rounds: rounds, participations: participations}
}

// Verify recomputes the winning number of a completed round.
func (v *DrawVerifier) Verify(ctx context.Context, roundID uuid.UUID) (*draw.Verification, error) {
	round, err := v.rounds.GetByID(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.DrawAlgorithmData == nil {
		return nil, fmt.Errorf("round %s has no draw record: %w", roundID, domainErrors.ErrNotEligible)
	}

	participations, err := v.participations.ListByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("load participations: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(participations))
	for _, p := range participations {
		ids = append(ids, p.ID)
	}

	result, err := draw.Verify(*round.DrawAlgorithmData, round.ID, round.ProductID, ids)
	if err != nil {
		return nil, err
	}
	if result.Valid && round.WinningNumber != nil && *round.WinningNumber != result.StoredWinningNumber {
		result.Valid = false
		result.Reason = "round winning number differs from draw record"
	}
	return &result, nil
}
