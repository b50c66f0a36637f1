package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/polkiloo/lotteryengine/internal/domain/model"
	"github.com/polkiloo/lotteryengine/internal/draw"
	"github.com/polkiloo/lotteryengine/internal/storage/memory"
	"github.com/polkiloo/lotteryengine/internal/test"
)

type harness struct {
	store  *memory.Store
	repos  *test.Factory
	logger *slog.Logger
}

func newHarness() *harness {
	store := memory.New()
	return &harness{
		store:  store,
		repos:  &test.Factory{Factory: store},
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
}

func (h *harness) audit() *AuditTrail {
	return NewAuditTrail(h.repos.Audit(), h.logger)
}

func (h *harness) validator() *RoundValidator {
	return NewRoundValidator(h.repos.Rounds(), h.repos.Participations(), draw.DefaultNumberOffset)
}

func (h *harness) committer() *SettlementCommitter {
	return NewSettlementCommitter(h.repos, h.audit(), h.logger)
}

func (h *harness) drawJob(drawer *draw.Drawer, cfg DrawJobConfig) *DrawJob {
	job := NewDrawJob(h.repos.Rounds(), h.validator(), drawer, h.committer(), h.audit(), h.logger, cfg)
	job.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return job
}

func (h *harness) reclaimer() *OrderReclaimer {
	return NewOrderReclaimer(h.repos, h.audit(), h.logger)
}

func (h *harness) eventTypes() []string {
	var types []string
	for _, e := range h.store.AuditEvents() {
		types = append(types, e.EventType)
	}
	return types
}

func (h *harness) events(eventType string) []model.AuditEvent {
	var out []model.AuditEvent
	for _, e := range h.store.AuditEvents() {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fixedDrawer returns a drawer that yields want for the given round.
func fixedDrawer(t *testing.T, round model.Round, participations []model.Participation, want int) *draw.Drawer {
	t.Helper()
	ids := make([]uuid.UUID, 0, len(participations))
	for _, p := range participations {
		ids = append(ids, p.ID)
	}
	in := draw.Input{RoundID: round.ID, ProductID: round.ProductID, ParticipationIDs: ids, TotalShares: round.TotalShares}
	entropy := test.EntropyFor(in, test.FixedTime, want)
	require.NotNil(t, entropy, "no entropy found for winning number %d", want)
	return draw.NewDrawer(draw.DefaultNumberOffset,
		draw.WithEntropySource(bytes.NewReader(entropy)),
		draw.WithClock(func() time.Time { return test.FixedTime }))
}

// twoUserRound seeds a sold-out round of ten shares split evenly between two users.
func (h *harness) twoUserRound() (model.Product, model.Round, []model.Participation, uuid.UUID, uuid.UUID) {
	product := test.SeedProduct(h.store, "Phone", 5, "999.90")
	userA, userB := uuid.New(), uuid.New()
	round, parts := test.SeedFullRound(h.store, product.ID, 1, []uuid.UUID{userA, userB}, []int{5, 5})
	return product, round, parts, userA, userB
}

// extractJSON returns the raw value stored under key in an audit payload.
func extractJSON(t *testing.T, data json.RawMessage, key string) string {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	return string(fields[key])
}
