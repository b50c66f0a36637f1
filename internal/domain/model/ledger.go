package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionTypeLotteryWin = "lottery_win"
	BalanceTypeLotteryCoin    = "lottery_coin"

	NotificationTypeLotteryWin = "lottery_win"
	NotificationStatusPending  = "pending"
)

// LedgerTransaction credits or debits a user balance.
type LedgerTransaction struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Type        string
	Amount      decimal.Decimal
	BalanceType string
	Description string
	RoundID     *uuid.UUID
	CreatedAt   time.Time
}

// Notification is a queued message. Delivery happens elsewhere.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      string
	Content   string
	Status    string
	RoundID   *uuid.UUID
	CreatedAt time.Time
}
