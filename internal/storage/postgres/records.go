package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/lotteryengine/internal/domain/errors"
	"github.com/polkiloo/lotteryengine/internal/domain/model"
)

type ledgerRepository struct {
	storage *Storage
}

type notificationRepository struct {
	storage *Storage
}

type auditRepository struct {
	storage *Storage
}

type followupRepository struct {
	storage *Storage
}

// --- LedgerRepository implementation ---

func (r *ledgerRepository) CreateTransaction(ctx context.Context, tx *model.LedgerTransaction) error {
	const query = `INSERT INTO transactions (user_id, type, amount, balance_type, description, round_id)
                   VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	return r.storage.pool.QueryRow(ctx, query, tx.UserID, tx.Type, tx.Amount, tx.BalanceType, tx.Description, tx.RoundID).
		Scan(&tx.ID, &tx.CreatedAt)
}

func (r *ledgerRepository) ExistsForRound(ctx context.Context, userID, roundID uuid.UUID, txType string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM transactions WHERE user_id=$1 AND round_id=$2 AND type=$3)`
	var exists bool
	if err := r.storage.pool.QueryRow(ctx, query, userID, roundID, txType).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// --- NotificationRepository implementation ---

func (r *notificationRepository) Enqueue(ctx context.Context, n *model.Notification) error {
	const query = `INSERT INTO notifications (user_id, type, content, status, round_id)
                   VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	return r.storage.pool.QueryRow(ctx, query, n.UserID, n.Type, n.Content, n.Status, n.RoundID).
		Scan(&n.ID, &n.CreatedAt)
}

func (r *notificationRepository) ExistsForRound(ctx context.Context, userID, roundID uuid.UUID, notificationType string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM notifications WHERE user_id=$1 AND round_id=$2 AND type=$3)`
	var exists bool
	if err := r.storage.pool.QueryRow(ctx, query, userID, roundID, notificationType).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// --- AuditRepository implementation ---

func (r *auditRepository) Append(ctx context.Context, event *model.AuditEvent) error {
	data := event.EventData
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	const query = `INSERT INTO audit_events (affected_id, event_type, severity, event_data, created_at)
                   VALUES ($1, $2, $3, $4, $5) RETURNING id`
	return r.storage.pool.QueryRow(ctx, query, event.AffectedID, event.EventType, event.Severity, []byte(data), event.CreatedAt).
		Scan(&event.ID)
}

// --- FollowupRepository implementation ---

func (r *followupRepository) Open(ctx context.Context, f *model.SettlementFollowup) error {
	const query = `INSERT INTO settlement_followups (round_id, step, last_error)
                   VALUES ($1, $2, $3) RETURNING id, status, attempts, created_at, updated_at`
	return r.storage.pool.QueryRow(ctx, query, f.RoundID, f.Step, f.LastError).
		Scan(&f.ID, &f.Status, &f.Attempts, &f.CreatedAt, &f.UpdatedAt)
}

func (r *followupRepository) ListOpen(ctx context.Context, limit int) ([]model.SettlementFollowup, error) {
	const query = `SELECT id, round_id, step, status, attempts, last_error, created_at, updated_at
                   FROM settlement_followups WHERE status='open' ORDER BY id LIMIT $1`
	rows, err := r.storage.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.SettlementFollowup
	for rows.Next() {
		var f model.SettlementFollowup
		if err := rows.Scan(&f.ID, &f.RoundID, &f.Step, &f.Status, &f.Attempts, &f.LastError, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *followupRepository) Resolve(ctx context.Context, id int64) error {
	const query = `UPDATE settlement_followups SET status='resolved', updated_at=NOW() WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *followupRepository) RecordFailure(ctx context.Context, id int64, lastError string, abandon bool) error {
	const query = `UPDATE settlement_followups
                   SET attempts=attempts+1, last_error=$2,
                       status=CASE WHEN $3::boolean THEN 'abandoned' ELSE status END, updated_at=NOW()
                   WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, id, lastError, abandon)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}
