package test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/lotteryengine/internal/domain/model"
	"github.com/polkiloo/lotteryengine/internal/domain/repository"
)

// Factory serves repositories from an underlying backend unless an override is set.
type Factory struct {
	repository.Factory

	RoundRepo         repository.RoundRepository
	ParticipationRepo repository.ParticipationRepository
	OrderRepo         repository.OrderRepository
	ProductRepo       repository.ProductRepository
	LedgerRepo        repository.LedgerRepository
	NotificationRepo  repository.NotificationRepository
	AuditRepo         repository.AuditRepository
	FollowupRepo      repository.FollowupRepository
}

// Rounds returns the override or the backend repository.
func (f *Factory) Rounds() repository.RoundRepository {
	if f.RoundRepo != nil {
		return f.RoundRepo
	}
	return f.Factory.Rounds()
}

// Participations returns the override or the backend repository.
func (f *Factory) Participations() repository.ParticipationRepository {
	if f.ParticipationRepo != nil {
		return f.ParticipationRepo
	}
	return f.Factory.Participations()
}

// Orders returns the override or the backend repository.
func (f *Factory) Orders() repository.OrderRepository {
	if f.OrderRepo != nil {
		return f.OrderRepo
	}
	return f.Factory.Orders()
}

// Products returns the override or the backend repository.
func (f *Factory) Products() repository.ProductRepository {
	if f.ProductRepo != nil {
		return f.ProductRepo
	}
	return f.Factory.Products()
}

// Ledger returns the override or the backend repository.
func (f *Factory) Ledger() repository.LedgerRepository {
	if f.LedgerRepo != nil {
		return f.LedgerRepo
	}
	return f.Factory.Ledger()
}

// Notifications returns the override or the backend repository.
func (f *Factory) Notifications() repository.NotificationRepository {
	if f.NotificationRepo != nil {
		return f.NotificationRepo
	}
	return f.Factory.Notifications()
}

// Audit returns the override or the backend repository.
func (f *Factory) Audit() repository.AuditRepository {
	if f.AuditRepo != nil {
		return f.AuditRepo
	}
	return f.Factory.Audit()
}

// Followups returns the override or the backend repository.
func (f *Factory) Followups() repository.FollowupRepository {
	if f.FollowupRepo != nil {
		return f.FollowupRepo
	}
	return f.Factory.Followups()
}

// RoundRepositoryStub delegates to the embedded repository unless a hook is set.
type RoundRepositoryStub struct {
	repository.RoundRepository

	ListDrawableFn     func(context.Context, int) ([]model.Round, error)
	CompleteDrawFn     func(context.Context, model.CompleteDrawParams) (bool, error)
	UpdateSoldSharesFn func(context.Context, uuid.UUID, int, int) (bool, error)
}

// ListDrawable calls the hook or delegates.
func (s *RoundRepositoryStub) ListDrawable(ctx context.Context, limit int) ([]model.Round, error) {
	if s.ListDrawableFn != nil {
		return s.ListDrawableFn(ctx, limit)
	}
	return s.RoundRepository.ListDrawable(ctx, limit)
}

// CompleteDraw calls the hook or delegates.
func (s *RoundRepositoryStub) CompleteDraw(ctx context.Context, p model.CompleteDrawParams) (bool, error) {
	if s.CompleteDrawFn != nil {
		return s.CompleteDrawFn(ctx, p)
	}
	return s.RoundRepository.CompleteDraw(ctx, p)
}

// UpdateSoldShares calls the hook or delegates.
func (s *RoundRepositoryStub) UpdateSoldShares(ctx context.Context, id uuid.UUID, expected, next int) (bool, error) {
	if s.UpdateSoldSharesFn != nil {
		return s.UpdateSoldSharesFn(ctx, id, expected, next)
	}
	return s.RoundRepository.UpdateSoldShares(ctx, id, expected, next)
}

// ParticipationRepositoryStub delegates to the embedded repository unless a hook is set.
type ParticipationRepositoryStub struct {
	repository.ParticipationRepository

	MarkWinnerFn func(context.Context, uuid.UUID) (bool, error)
}

// MarkWinner calls the hook or delegates.
func (s *ParticipationRepositoryStub) MarkWinner(ctx context.Context, id uuid.UUID) (bool, error) {
	if s.MarkWinnerFn != nil {
		return s.MarkWinnerFn(ctx, id)
	}
	return s.ParticipationRepository.MarkWinner(ctx, id)
}

// OrderRepositoryStub delegates to the embedded repository unless a hook is set.
type OrderRepositoryStub struct {
	repository.OrderRepository

	ListExpiredFn      func(context.Context, time.Time, int) ([]model.Order, error)
	TransitionStatusFn func(context.Context, uuid.UUID, model.OrderState, model.OrderState, string) (bool, error)
	RestoreStatusFn    func(context.Context, uuid.UUID, model.OrderState, model.OrderState, string) (bool, error)
	CreateSettlementFn func(context.Context, *model.Order) error
}

// ListExpired calls the hook or delegates.
func (s *OrderRepositoryStub) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	if s.ListExpiredFn != nil {
		return s.ListExpiredFn(ctx, cutoff, limit)
	}
	return s.OrderRepository.ListExpired(ctx, cutoff, limit)
}

// TransitionStatus calls the hook or delegates.
func (s *OrderRepositoryStub) TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.OrderState, note string) (bool, error) {
	if s.TransitionStatusFn != nil {
		return s.TransitionStatusFn(ctx, id, from, to, note)
	}
	return s.OrderRepository.TransitionStatus(ctx, id, from, to, note)
}

// RestoreStatus calls the hook or delegates.
func (s *OrderRepositoryStub) RestoreStatus(ctx context.Context, id uuid.UUID, from, to model.OrderState, notes string) (bool, error) {
	if s.RestoreStatusFn != nil {
		return s.RestoreStatusFn(ctx, id, from, to, notes)
	}
	return s.OrderRepository.RestoreStatus(ctx, id, from, to, notes)
}

// CreateSettlement calls the hook or delegates.
func (s *OrderRepositoryStub) CreateSettlement(ctx context.Context, order *model.Order) error {
	if s.CreateSettlementFn != nil {
		return s.CreateSettlementFn(ctx, order)
	}
	return s.OrderRepository.CreateSettlement(ctx, order)
}

// ProductRepositoryStub delegates to the embedded repository unless a hook is set.
type ProductRepositoryStub struct {
	repository.ProductRepository

	UpdateStockFn func(context.Context, uuid.UUID, int, int) (bool, error)
}

// UpdateStock calls the hook or delegates.
func (s *ProductRepositoryStub) UpdateStock(ctx context.Context, id uuid.UUID, expected, next int) (bool, error) {
	if s.UpdateStockFn != nil {
		return s.UpdateStockFn(ctx, id, expected, next)
	}
	return s.ProductRepository.UpdateStock(ctx, id, expected, next)
}

// LedgerRepositoryStub delegates to the embedded repository unless a hook is set.
type LedgerRepositoryStub struct {
	repository.LedgerRepository

	CreateTransactionFn func(context.Context, *model.LedgerTransaction) error
}

// CreateTransaction calls the hook or delegates.
func (s *LedgerRepositoryStub) CreateTransaction(ctx context.Context, tx *model.LedgerTransaction) error {
	if s.CreateTransactionFn != nil {
		return s.CreateTransactionFn(ctx, tx)
	}
	return s.LedgerRepository.CreateTransaction(ctx, tx)
}

// NotificationRepositoryStub delegates to the embedded repository unless a hook is set.
type NotificationRepositoryStub struct {
	repository.NotificationRepository

	EnqueueFn func(context.Context, *model.Notification) error
}

// Enqueue calls the hook or delegates.
func (s *NotificationRepositoryStub) Enqueue(ctx context.Context, n *model.Notification) error {
	if s.EnqueueFn != nil {
		return s.EnqueueFn(ctx, n)
	}
	return s.NotificationRepository.Enqueue(ctx, n)
}

// AuditRepositoryStub records appended events or fails with Err.
type AuditRepositoryStub struct {
	Events []model.AuditEvent
	Err    error
}

// Append stores the event unless Err is set.
func (s *AuditRepositoryStub) Append(_ context.Context, event *model.AuditEvent) error {
	if s.Err != nil {
		return s.Err
	}
	s.Events = append(s.Events, *event)
	return nil
}
