package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/lotteryengine/internal/domain/errors"
	"github.com/polkiloo/lotteryengine/internal/domain/model"
	"github.com/polkiloo/lotteryengine/internal/domain/repository"
)

// RejectionReason explains why a round cannot be drawn.
type RejectionReason string

const (
	RejectNotFound       RejectionReason = "not_found"
	RejectWrongState     RejectionReason = "wrong_state"
	RejectAlreadyDrawn   RejectionReason = "already_drawn"
	RejectNoParticipants RejectionReason = "no_participants"
	RejectUndersold      RejectionReason = "undersold"
	RejectInconsistent   RejectionReason = "inconsistent"
)

// RoundRejection is returned when a round fails eligibility checks.
type RoundRejection struct {
	RoundID uuid.UUID
	Reason  RejectionReason
	Detail  string
}

func (r *RoundRejection) Error() string {
	if r.Detail == "" {
		return fmt.Sprintf("round %s rejected: %s", r.RoundID, r.Reason)
	}
	return fmt.Sprintf("round %s rejected: %s: %s", r.RoundID, r.Reason, r.Detail)
}

// ValidatedRound is a round that passed every eligibility check together
// with the participations the checks were made against.
type ValidatedRound struct {
	Round          model.Round
	Participations []model.Participation
}

// ParticipationIDs returns ids of all participations.
func (v *ValidatedRound) ParticipationIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(v.Participations))
	for _, p := range v.Participations {
		ids = append(ids, p.ID)
	}
	return ids
}

// RoundValidator decides whether a round may be drawn.
type RoundValidator struct {
	rounds         repository.RoundRepository
	participations repository.ParticipationRepository
	numberOffset   int
}

// NewRoundValidator constructs RoundValidator.
func NewRoundValidator(rounds repository.RoundRepository, participations repository.ParticipationRepository, numberOffset int) *RoundValidator {
	return &RoundValidator{rounds: rounds, participations: participations, numberOffset: numberOffset}
}

// Validate loads the round and its participations and checks them in order.
// Rejections are returned as *RoundRejection; storage failures are wrapped.
func (v *RoundValidator) Validate(ctx context.Context, roundID uuid.UUID) (*ValidatedRound, error) {
	round, err := v.rounds.GetByID(ctx, roundID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, &RoundRejection{RoundID: roundID, Reason: RejectNotFound}
		}
		return nil, fmt.Errorf("load round %s: %w", roundID, err)
	}

	if round.Status != model.RoundStatusFull {
		return nil, &RoundRejection{RoundID: roundID, Reason: RejectWrongState, Detail: string(round.Status)}
	}
	if round.HasWinner() {
		return nil, &RoundRejection{RoundID: roundID, Reason: RejectAlreadyDrawn}
	}

	participations, err := v.participations.ListByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("load participations of round %s: %w", roundID, err)
	}
	if len(participations) == 0 {
		return nil, &RoundRejection{RoundID: roundID, Reason: RejectNoParticipants}
	}

	shares, numbers := 0, 0
	for _, p := range participations {
		shares += p.SharesCount
		numbers += len(p.Numbers)
	}
	if shares != round.TotalShares {
		return nil, &RoundRejection{
			RoundID: roundID,
			Reason:  RejectUndersold,
			Detail:  fmt.Sprintf("%d of %d shares sold", shares, round.TotalShares),
		}
	}
	if shares != numbers {
		return nil, &RoundRejection{
			RoundID: roundID,
			Reason:  RejectInconsistent,
			Detail:  fmt.Sprintf("%d shares but %d assigned numbers", shares, numbers),
		}
	}
	if detail := v.checkNumbers(round, participations); detail != "" {
		return nil, &RoundRejection{RoundID: roundID, Reason: RejectInconsistent, Detail: detail}
	}

	return &ValidatedRound{Round: *round, Participations: participations}, nil
}

// checkNumbers requires every number to be assigned once and to fall inside
// [offset, offset+totalShares).
func (v *RoundValidator) checkNumbers(round *model.Round, participations []model.Participation) string {
	low, high := v.numberOffset, v.numberOffset+round.TotalShares
	seen := make(map[int]struct{}, round.TotalShares)
	for _, p := range participations {
		for _, n := range p.Numbers {
			if n < low || n >= high {
				return fmt.Sprintf("number %d outside [%d, %d)", n, low, high)
			}
			if _, dup := seen[n]; dup {
				return fmt.Sprintf("number %d assigned more than once", n)
			}
			seen[n] = struct{}{}
		}
	}
	return ""
}

// ResolveWinner returns the participation holding winningNumber.
func ResolveWinner(participations []model.Participation, winningNumber int) (*model.Participation, error) {
	for i := range participations {
		if participations[i].Holds(winningNumber) {
			winner := participations[i]
			return &winner, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", domainErrors.ErrNoWinnerFound, winningNumber)
}
