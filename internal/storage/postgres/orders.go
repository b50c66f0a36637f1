package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/lotteryengine/internal/domain/errors"
	"github.com/polkiloo/lotteryengine/internal/domain/model"
)

type orderRepository struct {
	storage *Storage
}

type productRepository struct {
	storage *Storage
}

const selectOrder = `SELECT id, order_number, user_id, product_id, round_id, type, quantity, total_amount,
                     status, payment_status, fulfillment_status, notes, created_at, updated_at
                     FROM orders`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.ProductID, &o.RoundID, &o.Type, &o.Quantity, &o.TotalAmount,
		&o.Status, &o.PaymentStatus, &o.FulfillmentStatus, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, selectOrder+` WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	const where = ` WHERE status='pending' AND payment_status='pending' AND fulfillment_status='pending'
                    AND created_at < $1 ORDER BY created_at LIMIT $2`
	rows, err := r.storage.pool.Query(ctx, selectOrder+where, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.OrderState, note string) (bool, error) {
	const query = `UPDATE orders
                   SET status=$5, payment_status=$6, fulfillment_status=$7,
                       notes=CASE WHEN $8::text = '' THEN notes ELSE concat_ws(E'\n', NULLIF(notes, ''), $8::text) END,
                       updated_at=NOW()
                   WHERE id=$1 AND status=$2 AND payment_status=$3 AND fulfillment_status=$4`
	tag, err := r.storage.pool.Exec(ctx, query, id, from.Status, from.Payment, from.Fulfillment,
		to.Status, to.Payment, to.Fulfillment, note)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *orderRepository) RestoreStatus(ctx context.Context, id uuid.UUID, from, to model.OrderState, notes string) (bool, error) {
	const query = `UPDATE orders
                   SET status=$5, payment_status=$6, fulfillment_status=$7, notes=$8, updated_at=NOW()
                   WHERE id=$1 AND status=$2 AND payment_status=$3 AND fulfillment_status=$4`
	tag, err := r.storage.pool.Exec(ctx, query, id, from.Status, from.Payment, from.Fulfillment,
		to.Status, to.Payment, to.Fulfillment, notes)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *orderRepository) CreateSettlement(ctx context.Context, order *model.Order) error {
	const query = `INSERT INTO orders (order_number, user_id, product_id, round_id, type, quantity, total_amount,
                                       status, payment_status, fulfillment_status, notes)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
                   RETURNING id, created_at, updated_at`
	err := r.storage.pool.QueryRow(ctx, query, order.OrderNumber, order.UserID, order.ProductID, order.RoundID,
		order.Type, order.Quantity, order.TotalAmount, order.Status, order.PaymentStatus, order.FulfillmentStatus,
		order.Notes).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *orderRepository) FindSettlement(ctx context.Context, roundID uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, selectOrder+` WHERE round_id=$1 AND type='lottery_win'`, roundID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

// --- ProductRepository implementation ---

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	const query = `SELECT id, name, stock, market_price FROM products WHERE id=$1`
	var p model.Product
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Stock, &p.MarketPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) UpdateStock(ctx context.Context, id uuid.UUID, expected, next int) (bool, error) {
	const query = `UPDATE products SET stock=$3 WHERE id=$1 AND stock=$2`
	tag, err := r.storage.pool.Exec(ctx, query, id, expected, next)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
