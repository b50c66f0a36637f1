// Package memory provides an in-process repository backend with the same
// conditional update semantics as the PostgreSQL backend.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/lotteryengine/internal/domain/errors"
	"github.com/polkiloo/lotteryengine/internal/domain/model"
	"github.com/polkiloo/lotteryengine/internal/domain/repository"
)

// Store keeps all entities in maps guarded by a single lock.
type Store struct {
	mu sync.RWMutex

	rounds         map[uuid.UUID]model.Round
	participations map[uuid.UUID]model.Participation
	orders         map[uuid.UUID]model.Order
	products       map[uuid.UUID]model.Product
	transactions   []model.LedgerTransaction
	notifications  []model.Notification
	audit          []model.AuditEvent
	followups      map[int64]model.SettlementFollowup

	nextAuditID    int64
	nextFollowupID int64
	now            func() time.Time
}

type roundRepository struct{ store *Store }
type participationRepository struct{ store *Store }
type orderRepository struct{ store *Store }
type productRepository struct{ store *Store }
type ledgerRepository struct{ store *Store }
type notificationRepository struct{ store *Store }
type auditRepository struct{ store *Store }
type followupRepository struct{ store *Store }

var _ repository.Factory = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		rounds:         make(map[uuid.UUID]model.Round),
		participations: make(map[uuid.UUID]model.Participation),
		orders:         make(map[uuid.UUID]model.Order),
		products:       make(map[uuid.UUID]model.Product),
		followups:      make(map[int64]model.SettlementFollowup),
		nextAuditID:    1,
		nextFollowupID: 1,
		now:            time.Now,
	}
}

// Factory methods for domain repositories.
func (s *Store) Rounds() repository.RoundRepository {
	return &roundRepository{store: s}
}

func (s *Store) Participations() repository.ParticipationRepository {
	return &participationRepository{store: s}
}

func (s *Store) Orders() repository.OrderRepository {
	return &orderRepository{store: s}
}

func (s *Store) Products() repository.ProductRepository {
	return &productRepository{store: s}
}

func (s *Store) Ledger() repository.LedgerRepository {
	return &ledgerRepository{store: s}
}

func (s *Store) Notifications() repository.NotificationRepository {
	return &notificationRepository{store: s}
}

func (s *Store) Audit() repository.AuditRepository {
	return &auditRepository{store: s}
}

func (s *Store) Followups() repository.FollowupRepository {
	return &followupRepository{store: s}
}

// HealthCheck always succeeds.
func (s *Store) HealthCheck(context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Store) Close() {}

// --- seeding and inspection ---

// PutRound inserts or replaces a round.
func (s *Store) PutRound(r model.Round) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	s.rounds[r.ID] = cloneRound(r)
}

// PutParticipation inserts or replaces a participation.
func (s *Store) PutParticipation(p model.Participation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.participations[p.ID] = cloneParticipation(p)
}

// PutOrder inserts or replaces an order.
func (s *Store) PutOrder(o model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	s.orders[o.ID] = cloneOrder(o)
}

// PutProduct inserts or replaces a product.
func (s *Store) PutProduct(p model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// AuditEvents returns a snapshot of the audit log.
func (s *Store) AuditEvents() []model.AuditEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.audit)
}

// Transactions returns a snapshot of ledger transactions.
func (s *Store) Transactions() []model.LedgerTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.transactions)
}

// QueuedNotifications returns a snapshot of enqueued notifications.
func (s *Store) QueuedNotifications() []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notifications)
}

// AllFollowups returns followups ordered by id.
func (s *Store) AllFollowups() []model.SettlementFollowup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.SettlementFollowup, 0, len(s.followups))
	for _, f := range s.followups {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- RoundRepository implementation ---

func (r *roundRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Round, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	round, ok := r.store.rounds[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	cp := cloneRound(round)
	return &cp, nil
}

func (r *roundRepository) ListDrawable(_ context.Context, limit int) ([]model.Round, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []model.Round
	for _, round := range r.store.rounds {
		if round.Status == model.RoundStatusFull && round.WinnerUserID == nil {
			result = append(result, cloneRound(round))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *roundRepository) CompleteDraw(_ context.Context, p model.CompleteDrawParams) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	round, ok := r.store.rounds[p.RoundID]
	if !ok || round.Status != model.RoundStatusFull || round.WinnerUserID != nil {
		return false, nil
	}
	winner := p.WinnerUserID
	number := p.WinningNumber
	drawTime := p.DrawTime
	record := p.Record
	round.Status = model.RoundStatusCompleted
	round.WinnerUserID = &winner
	round.WinningNumber = &number
	round.DrawTime = &drawTime
	round.DrawAlgorithmData = &record
	round.UpdatedAt = r.store.now()
	r.store.rounds[p.RoundID] = round
	return true, nil
}

func (r *roundRepository) UpdateSoldShares(_ context.Context, id uuid.UUID, expected, next int) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	round, ok := r.store.rounds[id]
	if !ok || round.SoldShares != expected {
		return false, nil
	}
	round.SoldShares = next
	round.UpdatedAt = r.store.now()
	r.store.rounds[id] = round
	return true, nil
}

// --- ParticipationRepository implementation ---

func (r *participationRepository) ListByRound(_ context.Context, roundID uuid.UUID) ([]model.Participation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []model.Participation
	for _, p := range r.store.participations {
		if p.RoundID == roundID {
			result = append(result, cloneParticipation(p))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *participationRepository) MarkWinner(_ context.Context, id uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.participations[id]
	if !ok || p.IsWinner {
		return false, nil
	}
	p.IsWinner = true
	r.store.participations[id] = p
	return true, nil
}

// --- OrderRepository implementation ---

func (r *orderRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	o, ok := r.store.orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	cp := cloneOrder(o)
	return &cp, nil
}

func (r *orderRepository) ListExpired(_ context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []model.Order
	for _, o := range r.store.orders {
		if o.State() == model.OrderStatePending && o.CreatedAt.Before(cutoff) {
			result = append(result, cloneOrder(o))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *orderRepository) TransitionStatus(_ context.Context, id uuid.UUID, from, to model.OrderState, note string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[id]
	if !ok || o.State() != from {
		return false, nil
	}
	o.SetState(to)
	if note != "" {
		o.Notes = strings.TrimSpace(o.Notes + "\n" + note)
	}
	o.UpdatedAt = r.store.now()
	r.store.orders[id] = o
	return true, nil
}

func (r *orderRepository) RestoreStatus(_ context.Context, id uuid.UUID, from, to model.OrderState, notes string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[id]
	if !ok || o.State() != from {
		return false, nil
	}
	o.SetState(to)
	o.Notes = notes
	o.UpdatedAt = r.store.now()
	r.store.orders[id] = o
	return true, nil
}

func (r *orderRepository) CreateSettlement(_ context.Context, order *model.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if order.RoundID != nil {
		for _, existing := range r.store.orders {
			if existing.Type == model.OrderTypeLotteryWin && existing.RoundID != nil && *existing.RoundID == *order.RoundID {
				return domainErrors.ErrAlreadyExists
			}
		}
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	now := r.store.now()
	order.CreatedAt = now
	order.UpdatedAt = now
	r.store.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (r *orderRepository) FindSettlement(_ context.Context, roundID uuid.UUID) (*model.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, o := range r.store.orders {
		if o.Type == model.OrderTypeLotteryWin && o.RoundID != nil && *o.RoundID == roundID {
			cp := cloneOrder(o)
			return &cp, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// --- ProductRepository implementation ---

func (r *productRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	p, ok := r.store.products[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &p, nil
}

func (r *productRepository) UpdateStock(_ context.Context, id uuid.UUID, expected, next int) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[id]
	if !ok || p.Stock != expected {
		return false, nil
	}
	p.Stock = next
	r.store.products[id] = p
	return true, nil
}

// --- LedgerRepository and NotificationRepository implementations ---

func (r *ledgerRepository) CreateTransaction(_ context.Context, tx *model.LedgerTransaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	tx.CreatedAt = r.store.now()
	r.store.transactions = append(r.store.transactions, *tx)
	return nil
}

func (r *ledgerRepository) ExistsForRound(_ context.Context, userID, roundID uuid.UUID, txType string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, tx := range r.store.transactions {
		if tx.UserID == userID && tx.Type == txType && tx.RoundID != nil && *tx.RoundID == roundID {
			return true, nil
		}
	}
	return false, nil
}

func (r *notificationRepository) Enqueue(_ context.Context, n *model.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = r.store.now()
	r.store.notifications = append(r.store.notifications, *n)
	return nil
}

func (r *notificationRepository) ExistsForRound(_ context.Context, userID, roundID uuid.UUID, notificationType string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, n := range r.store.notifications {
		if n.UserID == userID && n.Type == notificationType && n.RoundID != nil && *n.RoundID == roundID {
			return true, nil
		}
	}
	return false, nil
}

// --- AuditRepository and FollowupRepository implementations ---

func (r *auditRepository) Append(_ context.Context, event *model.AuditEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	event.ID = r.store.nextAuditID
	r.store.nextAuditID++
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.store.now()
	}
	cp := *event
	cp.EventData = slices.Clone(event.EventData)
	r.store.audit = append(r.store.audit, cp)
	return nil
}

func (r *followupRepository) Open(_ context.Context, f *model.SettlementFollowup) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f.ID = r.store.nextFollowupID
	r.store.nextFollowupID++
	now := r.store.now()
	f.Status = model.FollowupOpen
	f.CreatedAt = now
	f.UpdatedAt = now
	r.store.followups[f.ID] = *f
	return nil
}

func (r *followupRepository) ListOpen(_ context.Context, limit int) ([]model.SettlementFollowup, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []model.SettlementFollowup
	for _, f := range r.store.followups {
		if f.Status == model.FollowupOpen {
			result = append(result, f)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *followupRepository) Resolve(_ context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f, ok := r.store.followups[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	f.Status = model.FollowupResolved
	f.UpdatedAt = r.store.now()
	r.store.followups[id] = f
	return nil
}

func (r *followupRepository) RecordFailure(_ context.Context, id int64, lastError string, abandon bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f, ok := r.store.followups[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	f.Attempts++
	f.LastError = lastError
	if abandon {
		f.Status = model.FollowupAbandoned
	}
	f.UpdatedAt = r.store.now()
	r.store.followups[id] = f
	return nil
}

func cloneRound(r model.Round) model.Round {
	if r.WinnerUserID != nil {
		v := *r.WinnerUserID
		r.WinnerUserID = &v
	}
	if r.WinningNumber != nil {
		v := *r.WinningNumber
		r.WinningNumber = &v
	}
	if r.DrawTime != nil {
		v := *r.DrawTime
		r.DrawTime = &v
	}
	if r.DrawAlgorithmData != nil {
		v := *r.DrawAlgorithmData
		r.DrawAlgorithmData = &v
	}
	return r
}

func cloneParticipation(p model.Participation) model.Participation {
	p.Numbers = slices.Clone(p.Numbers)
	return p
}

func cloneOrder(o model.Order) model.Order {
	if o.ProductID != nil {
		v := *o.ProductID
		o.ProductID = &v
	}
	if o.RoundID != nil {
		v := *o.RoundID
		o.RoundID = &v
	}
	return o
}
