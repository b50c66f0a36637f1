package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Participation is one user's purchase of shares within a round.
type Participation struct {
	ID          uuid.UUID
	RoundID     uuid.UUID
	UserID      uuid.UUID
	SharesCount int
	Numbers     []int
	IsWinner    bool
	CreatedAt   time.Time
}

// Holds reports whether the participation owns number.
func (p *Participation) Holds(number int) bool {
	return slices.Contains(p.Numbers, number)
}
