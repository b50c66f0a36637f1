package dto

import (
	"time"

	"github.com/google/uuid"
)

// ErrorResponse is returned when a job cannot run at all.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// UnitError describes one failed unit of a batch.
type UnitError struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// DrawSummary counts rounds handled by a draw run.
type DrawSummary struct {
	TotalFound int `json:"totalFound"`
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

// DrawResult describes one drawn round.
type DrawResult struct {
	RoundID       uuid.UUID `json:"roundId"`
	RoundNumber   int       `json:"roundNumber"`
	WinnerUserID  uuid.UUID `json:"winnerUserId"`
	WinningNumber int       `json:"winningNumber"`
	DrawTime      time.Time `json:"drawTime"`
	FailedSteps   []string  `json:"failedSteps,omitempty"`
}

// DrawResponse is the body of the auto-draw trigger.
type DrawResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Processed int          `json:"processed"`
	Summary   DrawSummary  `json:"summary"`
	Results   []DrawResult `json:"results"`
	Errors    []UnitError  `json:"errors"`
}

// RoundDrawResponse is the body of a single round draw.
type RoundDrawResponse struct {
	Success bool       `json:"success"`
	Result  DrawResult `json:"result"`
}

// RejectionResponse explains why a round was not drawn.
type RejectionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Reason  string `json:"reason"`
}

// ResourceChange reports a counter before and after an order was released.
type ResourceChange struct {
	ID     uuid.UUID `json:"id"`
	Before int       `json:"before"`
	After  int       `json:"after"`
}

// ReclaimSummary counts orders handled by a reclamation run.
type ReclaimSummary struct {
	TotalFound       int   `json:"totalFound"`
	Processed        int   `json:"processed"`
	Successful       int   `json:"successful"`
	Failed           int   `json:"failed"`
	Skipped          int   `json:"skipped"`
	ProcessingTimeMs int64 `json:"processingTimeMs"`
}

// ReclaimResult describes one released order.
type ReclaimResult struct {
	OrderID     uuid.UUID       `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	Quantity    int             `json:"quantity"`
	Product     *ResourceChange `json:"product,omitempty"`
	Round       *ResourceChange `json:"round,omitempty"`
}

// ReclaimResponse is the body of the release-expired-orders trigger.
type ReclaimResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Summary ReclaimSummary  `json:"summary"`
	Results []ReclaimResult `json:"results"`
	Errors  []UnitError     `json:"errors"`
}

// ReconcileSummary counts followups handled by a reconciliation run.
type ReconcileSummary struct {
	TotalFound int `json:"totalFound"`
	Resolved   int `json:"resolved"`
	Retrying   int `json:"retrying"`
	Abandoned  int `json:"abandoned"`
}

// ReconcileResponse is the body of the reconcile-settlements trigger.
type ReconcileResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Summary ReconcileSummary `json:"summary"`
	Errors  []UnitError      `json:"errors"`
}
