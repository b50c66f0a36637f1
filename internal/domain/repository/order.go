package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/lotteryengine/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// ListExpired returns pending orders created before cutoff, oldest first.
	ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error)
	// TransitionStatus moves the order from one status triple to another,
	// appending note to the order notes when it is not empty.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.OrderState, note string) (bool, error)
	// RestoreStatus moves the order from one status triple to another and
	// replaces the order notes with notes.
	RestoreStatus(ctx context.Context, id uuid.UUID, from, to model.OrderState, notes string) (bool, error)
	CreateSettlement(ctx context.Context, order *model.Order) error
	FindSettlement(ctx context.Context, roundID uuid.UUID) (*model.Order, error)
}
