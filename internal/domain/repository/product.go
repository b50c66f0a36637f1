package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/polkiloo/lotteryengine/internal/domain/model"
)

// ProductRepository describes persistence operations with products.
type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// UpdateStock applies WHERE stock=expected.
	UpdateStock(ctx context.Context, id uuid.UUID, expected, next int) (bool, error)
}
