package dto

import (
	"github.com/google/uuid"

	"github.com/polkiloo/lotteryengine/internal/draw"
)

// VerificationResponse reports whether a completed draw reproduces.
type VerificationResponse struct {
	Success      bool              `json:"success"`
	RoundID      uuid.UUID         `json:"roundId"`
	Verification draw.Verification `json:"verification"`
}

// HealthResponse reports service health.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
