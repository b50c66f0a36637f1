// Package storage selects the persistence backend and exposes its repositories to fx.
package storage

import (
	"context"
	"log/slog"
	"strings"

	"go.uber.org/fx"

	"github.com/polkiloo/lotteryengine/internal/config"
	"github.com/polkiloo/lotteryengine/internal/domain/repository"
	"github.com/polkiloo/lotteryengine/internal/storage/memory"
	"github.com/polkiloo/lotteryengine/internal/storage/postgres"
)

// MemoryDSN selects the in-process backend.
const MemoryDSN = "memory://"

// Backend is a repository factory with connection management.
type Backend interface {
	repository.Factory
	HealthCheck(ctx context.Context) error
	Close()
}

// Module wires the configured storage backend and repository adapters.
var Module = fx.Options(
	fx.Provide(newBackend),
	fx.Provide(
		func(b Backend) repository.Factory { return b },
		func(b Backend) repository.RoundRepository { return b.Rounds() },
		func(b Backend) repository.ParticipationRepository { return b.Participations() },
		func(b Backend) repository.OrderRepository { return b.Orders() },
		func(b Backend) repository.ProductRepository { return b.Products() },
		func(b Backend) repository.LedgerRepository { return b.Ledger() },
		func(b Backend) repository.NotificationRepository { return b.Notifications() },
		func(b Backend) repository.AuditRepository { return b.Audit() },
		func(b Backend) repository.FollowupRepository { return b.Followups() },
	),
	fx.Invoke(registerLifecycle),
)

type backendParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

var openPostgres = func(ctx context.Context, dsn string, logger *slog.Logger) (Backend, error) {
	st, err := postgres.New(ctx, dsn, logger)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func newBackend(p backendParams) (Backend, error) {
	if strings.HasPrefix(p.Config.DatabaseURI, MemoryDSN) {
		p.Logger.Warn("using in-memory storage; state is lost on restart")
		return memory.New(), nil
	}
	return openPostgres(p.Ctx, p.Config.DatabaseURI, p.Logger)
}

func registerLifecycle(lc fx.Lifecycle, backend Backend) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			backend.Close()
			return nil
		},
	})
}
