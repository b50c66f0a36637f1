// Package draw derives a verifiable winning share number from a round's
// participant set and a fresh block of entropy.
//
// The pipeline is deterministic given its entropy and timestamp:
//
//	participationHash = SHA-256(sorted participation ids || entropy)
//	seed              = SHA-256(json{roundId, productId, participationHash, entropy, timestamp, algorithmVersion})
//	prk               = HMAC-SHA256(key=seed, "lottery-vrf-key")
//	final             = SHA-256(prk || roundId)
//	winningNumber     = final mod totalShares + offset
package draw

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"slices"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/lotteryengine/internal/domain/errors"
	"github.com/polkiloo/lotteryengine/internal/domain/model"
)

const (
	AlgorithmVersion    = "vrf-sha256-v1"
	DefaultNumberOffset = 10000001
	EntropySize         = 32

	vrfLabel      = "lottery-vrf-key"
	seedPrefixLen = 32
)

// Input binds a draw to one round and its complete participant set.
type Input struct {
	RoundID          uuid.UUID
	ProductID        uuid.UUID
	ParticipationIDs []uuid.UUID
	TotalShares      int
	NumberOffset     int
}

type seedRecord struct {
	RoundID           string `json:"roundId"`
	ProductID         string `json:"productId"`
	ParticipationHash string `json:"participationHash"`
	Entropy           string `json:"entropy"`
	Timestamp         string `json:"timestamp"`
	AlgorithmVersion  string `json:"algorithmVersion"`
}

// Compute runs the draw pipeline with caller supplied entropy and timestamp.
func Compute(in Input, entropy []byte, at time.Time) (model.DrawRecord, error) {
	if len(entropy) != EntropySize {
		return model.DrawRecord{}, fmt.Errorf("%w: entropy must be %d bytes, got %d", domainErrors.ErrInvalidDrawInput, EntropySize, len(entropy))
	}
	if in.TotalShares <= 0 {
		return model.DrawRecord{}, fmt.Errorf("%w: total shares must be positive", domainErrors.ErrInvalidDrawInput)
	}
	if len(in.ParticipationIDs) == 0 {
		return model.DrawRecord{}, fmt.Errorf("%w: no participations", domainErrors.ErrInvalidDrawInput)
	}
	offset := in.NumberOffset
	if offset == 0 {
		offset = DefaultNumberOffset
	}

	at = at.UTC()
	entropyHex := hex.EncodeToString(entropy)
	participationHash := ParticipationHash(in.ParticipationIDs, entropy)

	seed, err := deriveSeed(seedRecord{
		RoundID:           in.RoundID.String(),
		ProductID:         in.ProductID.String(),
		ParticipationHash: participationHash,
		Entropy:           entropyHex,
		Timestamp:         at.Format(time.RFC3339Nano),
		AlgorithmVersion:  AlgorithmVersion,
	})
	if err != nil {
		return model.DrawRecord{}, err
	}

	return model.DrawRecord{
		WinningNumber:     winningNumber(seed, in.RoundID, in.TotalShares, offset),
		AlgorithmVersion:  AlgorithmVersion,
		Seed:              seed[:seedPrefixLen],
		ParticipationHash: participationHash,
		ParticipantCount:  len(in.ParticipationIDs),
		Timestamp:         at,
		Entropy:           entropyHex,
		TotalShares:       in.TotalShares,
		NumberOffset:      offset,
	}, nil
}

// ParticipationHash hashes the sorted ids followed by the raw entropy bytes.
func ParticipationHash(ids []uuid.UUID, entropy []byte) string {
	sorted := make([]string, 0, len(ids))
	for _, id := range ids {
		sorted = append(sorted, id.String())
	}
	slices.Sort(sorted)

	h := sha256.New()
	for _, id := range sorted {
		h.Write([]byte(id))
	}
	h.Write(entropy)
	return hex.EncodeToString(h.Sum(nil))
}

func deriveSeed(rec seedRecord) (string, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal seed record: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func winningNumber(seed string, roundID uuid.UUID, totalShares, offset int) int {
	mac := hmac.New(sha256.New, []byte(seed))
	mac.Write([]byte(vrfLabel))
	prk := mac.Sum(nil)

	h := sha256.New()
	h.Write(prk)
	h.Write([]byte(roundID.String()))
	final := new(big.Int).SetBytes(h.Sum(nil))

	idx := new(big.Int).Mod(final, big.NewInt(int64(totalShares)))
	return int(idx.Int64()) + offset
}

// Drawer produces draws from a cryptographically secure entropy source.
type Drawer struct {
	entropy      io.Reader
	now          func() time.Time
	numberOffset int
}

// Option customizes Drawer.
type Option func(*Drawer)

// WithEntropySource replaces crypto/rand as the entropy source.
func WithEntropySource(r io.Reader) Option {
	return func(d *Drawer) { d.entropy = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Drawer) { d.now = now }
}

// NewDrawer creates Drawer with the given numbering offset.
func NewDrawer(numberOffset int, opts ...Option) *Drawer {
	if numberOffset <= 0 {
		numberOffset = DefaultNumberOffset
	}
	d := &Drawer{
		entropy:      rand.Reader,
		now:          time.Now,
		numberOffset: numberOffset,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NumberOffset returns the first number of every round's numbering space.
func (d *Drawer) NumberOffset() int {
	return d.numberOffset
}

// Draw reads fresh entropy and computes the winning number.
func (d *Drawer) Draw(in Input) (model.DrawRecord, error) {
	entropy := make([]byte, EntropySize)
	if _, err := io.ReadFull(d.entropy, entropy); err != nil {
		return model.DrawRecord{}, fmt.Errorf("read entropy: %w", err)
	}
	in.NumberOffset = d.numberOffset
	return Compute(in, entropy, d.now())
}
