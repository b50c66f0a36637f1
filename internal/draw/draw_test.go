package draw

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/lotteryengine/internal/domain/errors"
)

var fixedTime = time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)

func fixedEntropy(b byte) []byte {
	return bytes.Repeat([]byte{b}, EntropySize)
}

func sampleInput() Input {
	return Input{
		RoundID:   uuid.MustParse("6f1c7f2e-6a57-4f5e-9a35-0c9b3b0f4a11"),
		ProductID: uuid.MustParse("0b5e3a9d-1c54-4e8f-8a7d-2f6c1e9b7d22"),
		ParticipationIDs: []uuid.UUID{
			uuid.MustParse("c3a0c9a4-5f0b-4c1e-b0d2-8b1f0e6d3a01"),
			uuid.MustParse("1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"),
			uuid.MustParse("9f8e7d6c-5b4a-4392-8170-6f5e4d3c2b1a"),
		},
		TotalShares:  10,
		NumberOffset: DefaultNumberOffset,
	}
}

func TestComputeIsReproducible(t *testing.T) {
	in := sampleInput()

	first, err := Compute(in, fixedEntropy(7), fixedTime)
	require.NoError(t, err)
	second, err := Compute(in, fixedEntropy(7), fixedTime)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first.Seed, seedPrefixLen)
	assert.Equal(t, AlgorithmVersion, first.AlgorithmVersion)
	assert.Equal(t, 3, first.ParticipantCount)
	assert.GreaterOrEqual(t, first.WinningNumber, DefaultNumberOffset)
	assert.Less(t, first.WinningNumber, DefaultNumberOffset+in.TotalShares)
}

func TestComputeIgnoresParticipationOrder(t *testing.T) {
	in := sampleInput()
	reordered := in
	reordered.ParticipationIDs = []uuid.UUID{in.ParticipationIDs[2], in.ParticipationIDs[0], in.ParticipationIDs[1]}

	a, err := Compute(in, fixedEntropy(1), fixedTime)
	require.NoError(t, err)
	b, err := Compute(reordered, fixedEntropy(1), fixedTime)
	require.NoError(t, err)

	assert.Equal(t, a.ParticipationHash, b.ParticipationHash)
	assert.Equal(t, a.WinningNumber, b.WinningNumber)
}

func TestComputeBindsParticipantSet(t *testing.T) {
	in := sampleInput()
	smaller := in
	smaller.ParticipationIDs = in.ParticipationIDs[:2]

	a, err := Compute(in, fixedEntropy(1), fixedTime)
	require.NoError(t, err)
	b, err := Compute(smaller, fixedEntropy(1), fixedTime)
	require.NoError(t, err)

	assert.NotEqual(t, a.ParticipationHash, b.ParticipationHash)
	assert.NotEqual(t, a.Seed, b.Seed)
}

func TestComputeDefaultsOffset(t *testing.T) {
	in := sampleInput()
	in.NumberOffset = 0

	rec, err := Compute(in, fixedEntropy(3), fixedTime)
	require.NoError(t, err)
	assert.Equal(t, DefaultNumberOffset, rec.NumberOffset)
}

func TestComputeRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Input)
		entropy []byte
	}{
		{"short entropy", func(*Input) {}, make([]byte, 16)},
		{"zero shares", func(in *Input) { in.TotalShares = 0 }, fixedEntropy(1)},
		{"no participations", func(in *Input) { in.ParticipationIDs = nil }, fixedEntropy(1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := sampleInput()
			tc.mutate(&in)
			_, err := Compute(in, tc.entropy, fixedTime)
			require.ErrorIs(t, err, domainErrors.ErrInvalidDrawInput)
		})
	}
}

func TestComputeIsUniform(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test")
	}

	const (
		trials  = 10000
		buckets = 100
		// chi-square with 99 degrees of freedom stays below 180 with p > 0.99999
		threshold = 180.0
	)

	in := sampleInput()
	in.TotalShares = buckets

	counts := make([]int, buckets)
	entropy := make([]byte, EntropySize)
	for i := 0; i < trials; i++ {
		_, err := rand.Read(entropy)
		require.NoError(t, err)
		rec, err := Compute(in, entropy, fixedTime)
		require.NoError(t, err)
		counts[(rec.WinningNumber-in.NumberOffset)%buckets]++
	}

	expected := float64(trials) / buckets
	var chi2 float64
	for _, c := range counts {
		d := float64(c) - expected
		chi2 += d * d / expected
	}
	assert.Less(t, chi2, threshold, "distribution deviates from uniform: chi2=%.2f", chi2)
}

func TestDrawerUsesEntropySourceAndClock(t *testing.T) {
	in := sampleInput()
	d := NewDrawer(DefaultNumberOffset,
		WithEntropySource(bytes.NewReader(fixedEntropy(9))),
		WithClock(func() time.Time { return fixedTime }),
	)

	got, err := d.Draw(in)
	require.NoError(t, err)

	want, err := Compute(in, fixedEntropy(9), fixedTime)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDrawerEntropyFailure(t *testing.T) {
	d := NewDrawer(0, WithEntropySource(bytes.NewReader([]byte{1, 2, 3})))
	assert.Equal(t, DefaultNumberOffset, d.NumberOffset())

	_, err := d.Draw(sampleInput())
	require.Error(t, err)
	assert.False(t, errors.Is(err, domainErrors.ErrInvalidDrawInput))
}
