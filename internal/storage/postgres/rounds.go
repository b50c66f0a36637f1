package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/lotteryengine/internal/domain/errors"
	"github.com/polkiloo/lotteryengine/internal/domain/model"
)

type roundRepository struct {
	storage *Storage
}

type participationRepository struct {
	storage *Storage
}

const selectRound = `SELECT id, product_id, round_number, total_shares, sold_shares, status,
                     winner_user_id, winning_number, draw_time, draw_algorithm_data, created_at, updated_at
                     FROM lottery_rounds`

func scanRound(row pgx.Row) (*model.Round, error) {
	var (
		r      model.Round
		record []byte
	)
	err := row.Scan(&r.ID, &r.ProductID, &r.RoundNumber, &r.TotalShares, &r.SoldShares, &r.Status,
		&r.WinnerUserID, &r.WinningNumber, &r.DrawTime, &record, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(record) > 0 {
		var rec model.DrawRecord
		if err := json.Unmarshal(record, &rec); err != nil {
			return nil, fmt.Errorf("decode draw record: %w", err)
		}
		r.DrawAlgorithmData = &rec
	}
	return &r, nil
}

func (r *roundRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Round, error) {
	round, err := scanRound(r.storage.pool.QueryRow(ctx, selectRound+` WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return round, nil
}

func (r *roundRepository) ListDrawable(ctx context.Context, limit int) ([]model.Round, error) {
	const where = ` WHERE status='full' AND winner_user_id IS NULL ORDER BY created_at LIMIT $1`
	rows, err := r.storage.pool.Query(ctx, selectRound+where, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *round)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *roundRepository) CompleteDraw(ctx context.Context, p model.CompleteDrawParams) (bool, error) {
	record, err := json.Marshal(p.Record)
	if err != nil {
		return false, fmt.Errorf("encode draw record: %w", err)
	}

	const query = `UPDATE lottery_rounds
                   SET status='completed', winner_user_id=$2, winning_number=$3, draw_time=$4,
                       draw_algorithm_data=$5, updated_at=NOW()
                   WHERE id=$1 AND status='full' AND winner_user_id IS NULL`
	tag, err := r.storage.pool.Exec(ctx, query, p.RoundID, p.WinnerUserID, p.WinningNumber, p.DrawTime, record)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *roundRepository) UpdateSoldShares(ctx context.Context, id uuid.UUID, expected, next int) (bool, error) {
	const query = `UPDATE lottery_rounds SET sold_shares=$3, updated_at=NOW() WHERE id=$1 AND sold_shares=$2`
	tag, err := r.storage.pool.Exec(ctx, query, id, expected, next)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// --- ParticipationRepository implementation ---

func (r *participationRepository) ListByRound(ctx context.Context, roundID uuid.UUID) ([]model.Participation, error) {
	const query = `SELECT id, round_id, user_id, shares_count, numbers, is_winner, created_at
                   FROM participations WHERE round_id=$1 ORDER BY created_at, id`
	rows, err := r.storage.pool.Query(ctx, query, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Participation
	for rows.Next() {
		var p model.Participation
		if err := rows.Scan(&p.ID, &p.RoundID, &p.UserID, &p.SharesCount, &p.Numbers, &p.IsWinner, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *participationRepository) MarkWinner(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `UPDATE participations SET is_winner=TRUE WHERE id=$1 AND is_winner=FALSE`
	tag, err := r.storage.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
