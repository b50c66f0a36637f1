package model

import (
	"time"

	"github.com/google/uuid"
)

// SettlementStep names a best-effort side effect of a settled round.
type SettlementStep string

const (
	StepMarkWinner      SettlementStep = "mark_winner"
	StepSettlementOrder SettlementStep = "settlement_order"
	StepLedgerCredit    SettlementStep = "ledger_credit"
	StepNotification    SettlementStep = "notification"
)

// SettlementSteps lists side effects in execution order.
var SettlementSteps = []SettlementStep{
	StepMarkWinner,
	StepSettlementOrder,
	StepLedgerCredit,
	StepNotification,
}

// FollowupStatus tracks reconciliation progress.
type FollowupStatus string

const (
	FollowupOpen      FollowupStatus = "open"
	FollowupResolved  FollowupStatus = "resolved"
	FollowupAbandoned FollowupStatus = "abandoned"
)

// SettlementFollowup records a failed side effect awaiting reconciliation.
type SettlementFollowup struct {
	ID        int64
	RoundID   uuid.UUID
	Step      SettlementStep
	Status    FollowupStatus
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}
