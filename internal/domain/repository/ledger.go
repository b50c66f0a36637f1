package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/polkiloo/lotteryengine/internal/domain/model"
)

// LedgerRepository records balance transactions.
type LedgerRepository interface {
	CreateTransaction(ctx context.Context, tx *model.LedgerTransaction) error
	ExistsForRound(ctx context.Context, userID, roundID uuid.UUID, txType string) (bool, error)
}

// NotificationRepository enqueues notification records.
type NotificationRepository interface {
	Enqueue(ctx context.Context, n *model.Notification) error
	ExistsForRound(ctx context.Context, userID, roundID uuid.UUID, notificationType string) (bool, error)
}
