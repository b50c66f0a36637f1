package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/lotteryengine/internal/domain/errors"
	"github.com/polkiloo/lotteryengine/internal/domain/model"
	"github.com/polkiloo/lotteryengine/internal/test"
)

func drawnRound(t *testing.T, h *harness) model.Round {
	t.Helper()
	_, round, parts, _, _ := h.twoUserRound()
	_, err := h.drawJob(fixedDrawer(t, round, parts, 10000005), DrawJobConfig{}).DrawRound(context.Background(), round.ID)
	require.NoError(t, err)
	stored, err := h.store.Rounds().GetByID(context.Background(), round.ID)
	require.NoError(t, err)
	return *stored
}

func TestDrawVerifierDetectsChangedParticipants(t *testing.T) {
	h := newHarness()
	round := drawnRound(t, h)
	verifier := NewDrawVerifier(h.store.Rounds(), h.store.Participations())

	result, err := verifier.Verify(context.Background(), round.ID)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, 10000005, result.StoredWinningNumber)

	h.store.PutParticipation(model.Participation{
		ID:          uuid.New(),
		RoundID:     round.ID,
		UserID:      uuid.New(),
		SharesCount: 1,
		Numbers:     []int{10000011},
		CreatedAt:   test.FixedTime.Add(-30 * time.Second),
	})

	result, err = verifier.Verify(context.Background(), round.ID)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "participant set changed since the draw", result.Reason)
	assert.Equal(t, 3, result.CurrentParticipantCount)
	assert.Equal(t, 2, result.ParticipantCount)
}

func TestDrawVerifierDetectsEditedWinningNumber(t *testing.T) {
	h := newHarness()
	round := drawnRound(t, h)
	edited := 10000001
	round.WinningNumber = &edited
	h.store.PutRound(round)

	result, err := NewDrawVerifier(h.store.Rounds(), h.store.Participations()).Verify(context.Background(), round.ID)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "round winning number differs from draw record", result.Reason)
}

func TestDrawVerifierRequiresDrawRecord(t *testing.T) {
	h := newHarness()
	_, round, _, _, _ := h.twoUserRound()
	verifier := NewDrawVerifier(h.store.Rounds(), h.store.Participations())

	_, err := verifier.Verify(context.Background(), round.ID)
	assert.ErrorIs(t, err, domainErrors.ErrNotEligible)

	_, err = verifier.Verify(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)
}
