package model

import (
	"encoding/json"
	"time"
)

// Severity classifies audit events.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// AuditEvent is an append-only record of a decision or failure.
type AuditEvent struct {
	ID         int64
	AffectedID string
	EventType  string
	Severity   Severity
	EventData  json.RawMessage
	CreatedAt  time.Time
}
