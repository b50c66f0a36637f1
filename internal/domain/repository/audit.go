package repository

import (
	"context"

	"github.com/polkiloo/lotteryengine/internal/domain/model"
)

// AuditRepository appends audit events. Events are never mutated.
type AuditRepository interface {
	Append(ctx context.Context, event *model.AuditEvent) error
}

// FollowupRepository tracks settlement side effects that need another attempt.
type FollowupRepository interface {
	Open(ctx context.Context, f *model.SettlementFollowup) error
	ListOpen(ctx context.Context, limit int) ([]model.SettlementFollowup, error)
	Resolve(ctx context.Context, id int64) error
	// RecordFailure bumps attempts and marks the followup abandoned when abandon is set.
	RecordFailure(ctx context.Context, id int64, lastError string, abandon bool) error
}
