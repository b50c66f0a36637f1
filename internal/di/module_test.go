package di

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/lotteryengine/internal/app"
	"github.com/polkiloo/lotteryengine/internal/config"
	"github.com/polkiloo/lotteryengine/internal/worker"
)

func TestModuleComposesGraphWithMemoryStorage(t *testing.T) {
	cfg := &config.Config{
		RunAddress:        ":0",
		DatabaseURI:       "memory://",
		ShutdownTimeout:   time.Millisecond,
		DrawInterval:      time.Minute,
		ReclaimInterval:   time.Minute,
		ReconcileInterval: time.Minute,
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	var (
		facade    *app.LotteryFacade
		engine    *gin.Engine
		server    *http.Server
		scheduler *worker.Scheduler
	)
	fxApp := fx.New(
		fx.NopLogger,
		fx.Supply(context.Background()),
		Module(
			fx.Replace(cfg),
			fx.Replace(logger),
		),
		fx.Populate(&facade, &engine, &server, &scheduler),
	)

	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}
	t.Cleanup(func() { _ = fxApp.Stop(context.Background()) })
	if facade == nil || engine == nil || server == nil {
		t.Fatal("expected facade, router and server instances")
	}
	if server.Handler != engine {
		t.Fatal("expected server to serve the router")
	}
	if len(scheduler.Jobs()) != 3 {
		t.Fatalf("expected three scheduled jobs, got %v", scheduler.Jobs())
	}
	if err := facade.Ping(context.Background()); err != nil {
		t.Fatalf("expected memory storage to be healthy: %v", err)
	}
}
