package telemetry

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/lotteryengine/internal/config"
)

// Module installs tracing on start and flushes it on stop.
var Module = fx.Invoke(registerLifecycle)

func registerLifecycle(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) {
	shutdown := ShutdownFunc(func(context.Context) error { return nil })
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			fn, err := Setup(ctx, cfg.OTelEndpoint, cfg.ServiceName)
			if err != nil {
				return err
			}
			shutdown = fn
			if cfg.OTelEndpoint != "" {
				logger.Info("tracing enabled", slog.String("endpoint", cfg.OTelEndpoint))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return shutdown(ctx)
		},
	})
}
