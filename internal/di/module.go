package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/lotteryengine/internal/app"
	"github.com/polkiloo/lotteryengine/internal/config"
	"github.com/polkiloo/lotteryengine/internal/logger"
	"github.com/polkiloo/lotteryengine/internal/pkg/auth"
	"github.com/polkiloo/lotteryengine/internal/server/http/router"
	"github.com/polkiloo/lotteryengine/internal/storage"
	"github.com/polkiloo/lotteryengine/internal/telemetry"
	"github.com/polkiloo/lotteryengine/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		telemetry.Module,
		auth.Module,
		storage.Module,
		usecase.Module,
		fx.Provide(func(b storage.Backend) app.HealthChecker { return b }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
