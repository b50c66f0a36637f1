package draw

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/lotteryengine/internal/domain/errors"
	"github.com/polkiloo/lotteryengine/internal/domain/model"
)

// Verification reports whether a stored draw can be reproduced.
type Verification struct {
	Valid                    bool   `json:"valid"`
	Reason                   string `json:"reason,omitempty"`
	StoredWinningNumber      int    `json:"storedWinningNumber"`
	RecomputedWinningNumber  int    `json:"recomputedWinningNumber"`
	StoredParticipationHash  string `json:"storedParticipationHash"`
	CurrentParticipationHash string `json:"currentParticipationHash"`
	AlgorithmVersion         string `json:"algorithmVersion"`
	ParticipantCount         int    `json:"participantCount"`
	CurrentParticipantCount  int    `json:"currentParticipantCount"`
}

// Verify recomputes the winning number from a stored record and the current
// participant set of the round.
func Verify(rec model.DrawRecord, roundID, productID uuid.UUID, participationIDs []uuid.UUID) (Verification, error) {
	if rec.AlgorithmVersion != AlgorithmVersion {
		return Verification{}, fmt.Errorf("%w: unsupported algorithm %q", domainErrors.ErrInvalidDrawRecord, rec.AlgorithmVersion)
	}
	entropy, err := hex.DecodeString(rec.Entropy)
	if err != nil || len(entropy) != EntropySize {
		return Verification{}, fmt.Errorf("%w: entropy not recoverable", domainErrors.ErrInvalidDrawRecord)
	}

	v := Verification{
		StoredWinningNumber:     rec.WinningNumber,
		StoredParticipationHash: rec.ParticipationHash,
		AlgorithmVersion:        rec.AlgorithmVersion,
		ParticipantCount:        rec.ParticipantCount,
		CurrentParticipantCount: len(participationIDs),
	}

	recomputed, err := Compute(Input{
		RoundID:          roundID,
		ProductID:        productID,
		ParticipationIDs: participationIDs,
		TotalShares:      rec.TotalShares,
		NumberOffset:     rec.NumberOffset,
	}, entropy, rec.Timestamp)
	if err != nil {
		return Verification{}, err
	}

	v.CurrentParticipationHash = recomputed.ParticipationHash
	v.RecomputedWinningNumber = recomputed.WinningNumber

	switch {
	case recomputed.ParticipationHash != rec.ParticipationHash:
		v.Reason = "participant set changed since the draw"
	case recomputed.Seed != rec.Seed:
		v.Reason = "seed mismatch"
	case recomputed.WinningNumber != rec.WinningNumber:
		v.Reason = "winning number mismatch"
	default:
		v.Valid = true
	}
	return v, nil
}
