package test

import (
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/lotteryengine/internal/domain/model"
	"github.com/polkiloo/lotteryengine/internal/draw"
	"github.com/polkiloo/lotteryengine/internal/storage/memory"
)

// Seeder is the seeding surface of the in-memory store.
type Seeder interface {
	PutRound(model.Round)
	PutParticipation(model.Participation)
	PutOrder(model.Order)
	PutProduct(model.Product)
}

var _ Seeder = (*memory.Store)(nil)

// FixedTime is a stable timestamp for deterministic draws.
var FixedTime = time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)

// SeedProduct stores a product with the given stock.
func SeedProduct(s Seeder, name string, stock int, price string) model.Product {
	p := model.Product{ID: uuid.New(), Name: name, Stock: stock, MarketPrice: decimal.RequireFromString(price)}
	s.PutProduct(p)
	return p
}

// SeedFullRound stores a full round whose participations own consecutive
// numbers starting at the default offset, one participation per entry of shares.
// Participation i is created one second after participation i-1.
func SeedFullRound(s Seeder, productID uuid.UUID, roundNumber int, users []uuid.UUID, shares []int) (model.Round, []model.Participation) {
	total := 0
	for _, n := range shares {
		total += n
	}
	round := model.Round{
		ID:          uuid.New(),
		ProductID:   productID,
		RoundNumber: roundNumber,
		TotalShares: total,
		SoldShares:  total,
		Status:      model.RoundStatusFull,
		CreatedAt:   FixedTime.Add(time.Duration(roundNumber) * time.Minute),
	}
	s.PutRound(round)

	next := draw.DefaultNumberOffset
	participations := make([]model.Participation, 0, len(shares))
	for i, n := range shares {
		numbers := make([]int, n)
		for k := range numbers {
			numbers[k] = next
			next++
		}
		p := model.Participation{
			ID:          uuid.New(),
			RoundID:     round.ID,
			UserID:      users[i],
			SharesCount: n,
			Numbers:     numbers,
			CreatedAt:   FixedTime.Add(time.Duration(i) * time.Second),
		}
		s.PutParticipation(p)
		participations = append(participations, p)
	}
	return round, participations
}

// SeedPendingOrder stores a pending purchase order created at createdAt.
func SeedPendingOrder(s Seeder, productID, roundID *uuid.UUID, quantity int, createdAt time.Time) model.Order {
	o := model.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-" + uuid.NewString()[:8],
		UserID:      uuid.New(),
		ProductID:   productID,
		RoundID:     roundID,
		Type:        model.OrderTypePurchase,
		Quantity:    quantity,
		TotalAmount: decimal.NewFromInt(int64(quantity)),
		CreatedAt:   createdAt,
	}
	o.SetState(model.OrderStatePending)
	s.PutOrder(o)
	return o
}

// EntropyFor searches deterministic entropy values until the draw of in at
// the given time yields want. It returns nil when nothing matches within the
// search bound.
func EntropyFor(in draw.Input, at time.Time, want int) []byte {
	var counter [8]byte
	for i := uint64(0); i < 100000; i++ {
		binary.BigEndian.PutUint64(counter[:], i)
		sum := sha256.Sum256(counter[:])
		rec, err := draw.Compute(in, sum[:], at)
		if err != nil {
			return nil
		}
		if rec.WinningNumber == want {
			return sum[:]
		}
	}
	return nil
}
