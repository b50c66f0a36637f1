package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is an inventory unit.
type Product struct {
	ID          uuid.UUID
	Name        string
	Stock       int
	MarketPrice decimal.Decimal
}
