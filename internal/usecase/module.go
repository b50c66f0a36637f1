package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/lotteryengine/internal/config"
	"github.com/polkiloo/lotteryengine/internal/domain/repository"
	"github.com/polkiloo/lotteryengine/internal/draw"
)

// Module provides the draw, reclamation and reconciliation use cases to the fx container.
var Module = fx.Provide(
	NewAuditTrail,
	newRoundValidator,
	newDrawer,
	NewSettlementCommitter,
	newDrawJob,
	NewOrderReclaimer,
	newReclaimJob,
	newSettlementReconciler,
	NewDrawVerifier,
)

func newRoundValidator(repos repository.Factory, cfg *config.Config) *RoundValidator {
	return NewRoundValidator(repos.Rounds(), repos.Participations(), cfg.NumberOffset)
}

func newDrawer(cfg *config.Config) *draw.Drawer {
	return draw.NewDrawer(cfg.NumberOffset)
}

type drawJobParams struct {
	fx.In

	Rounds    repository.RoundRepository
	Validator *RoundValidator
	Drawer    *draw.Drawer
	Committer *SettlementCommitter
	Audit     *AuditTrail
	Logger    *slog.Logger
	Config    *config.Config
}

func newDrawJob(p drawJobParams) *DrawJob {
	return NewDrawJob(p.Rounds, p.Validator, p.Drawer, p.Committer, p.Audit, p.Logger, DrawJobConfig{
		BatchSize:  p.Config.DrawBatchSize,
		GroupSize:  p.Config.DrawGroupSize,
		GroupPause: p.Config.DrawGroupPause,
	})
}

func newReclaimJob(orders repository.OrderRepository, reclaimer *OrderReclaimer, audit *AuditTrail, logger *slog.Logger, cfg *config.Config) *ReclaimJob {
	return NewReclaimJob(orders, reclaimer, audit, logger, ReclaimJobConfig{
		BatchSize:    cfg.ReclaimBatchSize,
		OrderTimeout: cfg.OrderTimeout,
	})
}

func newSettlementReconciler(repos repository.Factory, committer *SettlementCommitter, audit *AuditTrail, logger *slog.Logger, cfg *config.Config) *SettlementReconciler {
	return NewSettlementReconciler(repos, committer, audit, logger, ReconcileConfig{
		BatchSize:   cfg.ReconcileBatchSize,
		MaxAttempts: cfg.ReconcileMaxAttempts,
	})
}
