package model

import (
	"time"

	"github.com/google/uuid"
)

// RoundStatus describes round lifecycle. Transitions only move forward.
type RoundStatus string

const (
	RoundStatusOpen      RoundStatus = "open"
	RoundStatusFull      RoundStatus = "full"
	RoundStatusCompleted RoundStatus = "completed"
)

// Round is one sales cycle of numbered shares for a product.
type Round struct {
	ID                uuid.UUID
	ProductID         uuid.UUID
	RoundNumber       int
	TotalShares       int
	SoldShares        int
	Status            RoundStatus
	WinnerUserID      *uuid.UUID
	WinningNumber     *int
	DrawTime          *time.Time
	DrawAlgorithmData *DrawRecord
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasWinner reports whether any winner field has already been committed.
func (r *Round) HasWinner() bool {
	return r.WinnerUserID != nil || r.WinningNumber != nil
}

// CompleteDrawParams carries the terminal transition of a round.
type CompleteDrawParams struct {
	RoundID       uuid.UUID
	WinnerUserID  uuid.UUID
	WinningNumber int
	DrawTime      time.Time
	Record        DrawRecord
}
