package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/lotteryengine/internal/config"
	"github.com/polkiloo/lotteryengine/internal/server/http/handlers"
	"github.com/polkiloo/lotteryengine/internal/worker"
)

// Job names used by the in-process scheduler.
const (
	JobAutoDraw             = "auto-draw"
	JobReleaseExpiredOrders = "release-expired-orders"
	JobReconcileSettlements = "reconcile-settlements"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewLotteryFacade,
		func(f *LotteryFacade) handlers.LotteryFacade { return f },
		newHTTPServer,
		newScheduler,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type schedulerParams struct {
	fx.In

	Facade *LotteryFacade
	Config *config.Config
	Logger *slog.Logger
}

func newScheduler(p schedulerParams) *worker.Scheduler {
	return worker.NewScheduler(p.Logger,
		worker.Job{Name: JobAutoDraw, Interval: p.Config.DrawInterval, Run: func(ctx context.Context) error {
			_, err := p.Facade.RunDraws(ctx)
			return err
		}},
		worker.Job{Name: JobReleaseExpiredOrders, Interval: p.Config.ReclaimInterval, Run: func(ctx context.Context) error {
			_, err := p.Facade.ReleaseExpiredOrders(ctx)
			return err
		}},
		worker.Job{Name: JobReconcileSettlements, Interval: p.Config.ReconcileInterval, Run: func(ctx context.Context) error {
			_, err := p.Facade.ReconcileSettlements(ctx)
			return err
		}},
	)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Scheduler  *worker.Scheduler
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting lottery engine",
				slog.String("addr", p.Server.Addr),
				slog.Bool("scheduler", p.Config.SchedulerEnabled))
			if p.Config.SchedulerEnabled {
				p.Scheduler.Start(ctx)
			}
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Scheduler.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("lottery engine stopped")
			return nil
		},
	})
}
