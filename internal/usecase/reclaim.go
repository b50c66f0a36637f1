package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/lotteryengine/internal/domain/errors"
	"github.com/polkiloo/lotteryengine/internal/domain/model"
	"github.com/polkiloo/lotteryengine/internal/domain/repository"
)

// ResourceChange records a counter before and after reclamation.
type ResourceChange struct {
	ID     uuid.UUID
	Before int
	After  int
}

// ReclaimResult describes one released order.
type ReclaimResult struct {
	OrderID     uuid.UUID
	OrderNumber string
	Quantity    int
	Product     *ResourceChange
	Round       *ResourceChange
}

// ReclaimError reports a failed reclamation saga.
type ReclaimError struct {
	OrderID     uuid.UUID
	Step        string
	Err         error
	Compensated bool
}

func (e *ReclaimError) Error() string {
	state := "compensated"
	if !e.Compensated {
		state = "rollback failed"
	}
	return fmt.Sprintf("reclaim order %s failed at %s (%s): %v", e.OrderID, e.Step, state, e.Err)
}

func (e *ReclaimError) Unwrap() error {
	return e.Err
}

type compensation struct {
	name string
	undo func(context.Context) error
}

// OrderReclaimer expires one stale order and returns its reserved inventory.
type OrderReclaimer struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	rounds   repository.RoundRepository
	audit    *AuditTrail
	logger   *slog.Logger
	now      func() time.Time
}

// NewOrderReclaimer constructs OrderReclaimer.
func NewOrderReclaimer(repos repository.Factory, audit *AuditTrail, logger *slog.Logger) *OrderReclaimer {
	return &OrderReclaimer{
		orders:   repos.Orders(),
		products: repos.Products(),
		rounds:   repos.Rounds(),
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

// Reclaim runs the release saga for orderID. Orders that are no longer
// pending yield ErrNotEligible. Once the order has been expired, any later
// failure undoes the applied steps in reverse order and is returned as
// *ReclaimError.
func (r *OrderReclaimer) Reclaim(ctx context.Context, orderID uuid.UUID) (*ReclaimResult, error) {
	order, err := r.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, domainErrors.ErrNotEligible)
		}
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}
	if order.State() != model.OrderStatePending {
		return nil, fmt.Errorf("order %s is %s: %w", orderID, order.Status, domainErrors.ErrNotEligible)
	}

	note := fmt.Sprintf("[system] order expired after payment timeout at %s", r.now().UTC().Format(time.RFC3339))
	applied, err := r.orders.TransitionStatus(ctx, order.ID, model.OrderStatePending, model.OrderStateExpired, note)
	if err != nil {
		return nil, fmt.Errorf("expire order %s: %w", orderID, err)
	}
	if !applied {
		return nil, fmt.Errorf("order %s changed concurrently: %w", orderID, domainErrors.ErrNotEligible)
	}

	undo := []compensation{{name: "order", undo: func(ctx context.Context) error {
		return r.restoreOrder(ctx, order.ID, order.Notes)
	}}}
	result := &ReclaimResult{OrderID: order.ID, OrderNumber: order.OrderNumber, Quantity: order.Quantity}

	if order.ProductID != nil && order.Quantity > 0 {
		change, err := r.releaseStock(ctx, *order.ProductID, order.Quantity)
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			r.auditMissing(ctx, order, EventProductNotFound, *order.ProductID)
		case err != nil:
			return nil, r.compensate(ctx, order, "release_stock", err, undo)
		default:
			result.Product = change
			undo = append(undo, compensation{name: "product", undo: func(ctx context.Context) error {
				return r.restoreCounter(ctx, "stock", change, r.products.UpdateStock)
			}})
		}
	}

	if order.RoundID != nil && order.Quantity > 0 {
		change, err := r.releaseShares(ctx, *order.RoundID, order.Quantity)
		switch {
		case errors.Is(err, domainErrors.ErrNotFound):
			r.auditMissing(ctx, order, EventRoundNotFound, *order.RoundID)
		case err != nil:
			return nil, r.compensate(ctx, order, "release_shares", err, undo)
		default:
			result.Round = change
			undo = append(undo, compensation{name: "round", undo: func(ctx context.Context) error {
				return r.restoreCounter(ctx, "sold shares", change, r.rounds.UpdateSoldShares)
			}})
		}
	}

	r.logger.Info("expired order released",
		slog.String("order_id", order.ID.String()),
		slog.String("order_number", order.OrderNumber),
		slog.Int("quantity", order.Quantity))
	r.audit.Record(ctx, AuditEntry{
		AffectedID: order.ID.String(),
		EventType:  EventOrderReleased,
		Severity:   model.SeverityInfo,
		Data: map[string]any{
			"orderId":     order.ID,
			"orderNumber": order.OrderNumber,
			"userId":      order.UserID,
			"quantity":    order.Quantity,
			"product":     changeData(result.Product),
			"round":       changeData(result.Round),
		},
	})
	return result, nil
}

func (r *OrderReclaimer) releaseStock(ctx context.Context, productID uuid.UUID, quantity int) (*ResourceChange, error) {
	product, err := r.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	change := &ResourceChange{ID: productID, Before: product.Stock, After: product.Stock + quantity}
	applied, err := r.products.UpdateStock(ctx, productID, change.Before, change.After)
	if err != nil {
		return nil, fmt.Errorf("update stock: %w", err)
	}
	if !applied {
		return nil, fmt.Errorf("stock of product %s: %w", productID, domainErrors.ErrConflict)
	}
	return change, nil
}

func (r *OrderReclaimer) releaseShares(ctx context.Context, roundID uuid.UUID, quantity int) (*ResourceChange, error) {
	round, err := r.rounds.GetByID(ctx, roundID)
	if err != nil {
		return nil, err
	}
	change := &ResourceChange{ID: roundID, Before: round.SoldShares, After: max(0, round.SoldShares-quantity)}
	applied, err := r.rounds.UpdateSoldShares(ctx, roundID, change.Before, change.After)
	if err != nil {
		return nil, fmt.Errorf("update sold shares: %w", err)
	}
	if !applied {
		return nil, fmt.Errorf("sold shares of round %s: %w", roundID, domainErrors.ErrConflict)
	}
	return change, nil
}

// restoreOrder puts the order back to pending with the notes it had before
// the expiry note was appended.
func (r *OrderReclaimer) restoreOrder(ctx context.Context, orderID uuid.UUID, notes string) error {
	applied, err := r.orders.RestoreStatus(ctx, orderID, model.OrderStateExpired, model.OrderStatePending, notes)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("order %s status: %w", orderID, domainErrors.ErrConflict)
	}
	return nil
}

type counterUpdate func(ctx context.Context, id uuid.UUID, expected, next int) (bool, error)

func (r *OrderReclaimer) restoreCounter(ctx context.Context, what string, change *ResourceChange, update counterUpdate) error {
	applied, err := update(ctx, change.ID, change.After, change.Before)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("%s of %s: %w", what, change.ID, domainErrors.ErrConflict)
	}
	return nil
}

// compensate undoes applied steps newest first. Every undo is attempted.
func (r *OrderReclaimer) compensate(ctx context.Context, order *model.Order, step string, cause error, undo []compensation) error {
	var rollbackErrors []string
	for i := len(undo) - 1; i >= 0; i-- {
		if err := undo[i].undo(ctx); err != nil {
			rollbackErrors = append(rollbackErrors, fmt.Sprintf("%s: %v", undo[i].name, err))
		}
	}

	reclaimErr := &ReclaimError{OrderID: order.ID, Step: step, Err: cause, Compensated: len(rollbackErrors) == 0}
	if !reclaimErr.Compensated {
		r.logger.Error("order release rollback failed",
			slog.String("order_id", order.ID.String()),
			slog.String("step", step),
			slog.Any("rollback_errors", rollbackErrors))
		r.audit.Record(ctx, AuditEntry{
			AffectedID: order.ID.String(),
			EventType:  EventRollbackFailed,
			Severity:   model.SeverityCritical,
			Data: map[string]any{
				"orderId":        order.ID,
				"orderNumber":    order.OrderNumber,
				"step":           step,
				"error":          cause.Error(),
				"rollbackErrors": rollbackErrors,
			},
		})
		return reclaimErr
	}

	r.logger.Error("order release failed",
		slog.String("order_id", order.ID.String()),
		slog.String("step", step),
		slog.String("error", cause.Error()))
	r.audit.Record(ctx, AuditEntry{
		AffectedID: order.ID.String(),
		EventType:  EventOrderReleaseFailed,
		Severity:   model.SeverityError,
		Data: map[string]any{
			"orderId": order.ID,
			"step":    step,
			"error":   cause.Error(),
		},
	})
	return reclaimErr
}

func (r *OrderReclaimer) auditMissing(ctx context.Context, order *model.Order, eventType string, resourceID uuid.UUID) {
	r.logger.Warn("reserved resource missing",
		slog.String("order_id", order.ID.String()),
		slog.String("event_type", eventType),
		slog.String("resource_id", resourceID.String()))
	r.audit.Record(ctx, AuditEntry{
		AffectedID: order.ID.String(),
		EventType:  eventType,
		Severity:   model.SeverityWarning,
		Data: map[string]any{
			"orderId":    order.ID,
			"resourceId": resourceID,
			"quantity":   order.Quantity,
		},
	})
}

func changeData(c *ResourceChange) map[string]any {
	if c == nil {
		return nil
	}
	return map[string]any{"id": c.ID, "before": c.Before, "after": c.After}
}
