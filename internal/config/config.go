package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress      string        `env:"RUN_ADDRESS" envDefault:":8080"`
	DatabaseURI     string        `env:"DATABASE_URI"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`

	DrawBatchSize  int           `env:"DRAW_BATCH_SIZE" envDefault:"20"`
	DrawGroupSize  int           `env:"DRAW_GROUP_SIZE" envDefault:"3"`
	DrawGroupPause time.Duration `env:"DRAW_GROUP_PAUSE" envDefault:"500ms"`
	DrawInterval   time.Duration `env:"DRAW_INTERVAL" envDefault:"5m"`
	NumberOffset   int           `env:"NUMBER_OFFSET" envDefault:"10000001"`

	ReclaimBatchSize int           `env:"RECLAIM_BATCH_SIZE" envDefault:"100"`
	OrderTimeout     time.Duration `env:"ORDER_TIMEOUT" envDefault:"30m"`
	ReclaimInterval  time.Duration `env:"RECLAIM_INTERVAL" envDefault:"1m"`

	ReconcileBatchSize   int           `env:"RECONCILE_BATCH_SIZE" envDefault:"50"`
	ReconcileMaxAttempts int           `env:"RECONCILE_MAX_ATTEMPTS" envDefault:"5"`
	ReconcileInterval    time.Duration `env:"RECONCILE_INTERVAL" envDefault:"10m"`

	SchedulerEnabled bool   `env:"SCHEDULER_ENABLED" envDefault:"true"`
	TriggerTokenHash string `env:"TRIGGER_TOKEN_HASH"`
	OTelEndpoint     string `env:"OTEL_ENDPOINT"`
	ServiceName      string `env:"SERVICE_NAME" envDefault:"lotteryengine"`
}

const (
	defaultShutdownTimeout      = 10 * time.Second
	defaultDrawBatchSize        = 20
	defaultDrawGroupSize        = 3
	defaultDrawGroupPause       = 500 * time.Millisecond
	defaultDrawInterval         = 5 * time.Minute
	defaultNumberOffset         = 10000001
	defaultReclaimBatchSize     = 100
	defaultOrderTimeout         = 30 * time.Minute
	defaultReclaimInterval      = time.Minute
	defaultReconcileBatchSize   = 50
	defaultReconcileMaxAttempts = 5
	defaultReconcileInterval    = 10 * time.Minute
)

// Load parses configuration from environment variables and flags.
func Load() (*Config, error) {
	return load(os.Args[1:], env.ToMap(os.Environ()))
}

func load(args []string, environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("lotteryengine", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN or memory://")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "Graceful shutdown timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.IntVar(&cfg.DrawBatchSize, "draw-batch", cfg.DrawBatchSize, "Maximum rounds drawn per run")
	fs.IntVar(&cfg.DrawGroupSize, "draw-group", cfg.DrawGroupSize, "Rounds drawn concurrently")
	fs.DurationVar(&cfg.DrawGroupPause, "draw-pause", cfg.DrawGroupPause, "Pause between draw groups")
	fs.DurationVar(&cfg.DrawInterval, "draw-interval", cfg.DrawInterval, "Interval between scheduled draw runs")
	fs.IntVar(&cfg.NumberOffset, "number-offset", cfg.NumberOffset, "First lottery number of a round")
	fs.IntVar(&cfg.ReclaimBatchSize, "reclaim-batch", cfg.ReclaimBatchSize, "Maximum orders reclaimed per run")
	fs.DurationVar(&cfg.OrderTimeout, "order-timeout", cfg.OrderTimeout, "Age after which pending orders expire")
	fs.DurationVar(&cfg.ReclaimInterval, "reclaim-interval", cfg.ReclaimInterval, "Interval between scheduled reclaim runs")
	fs.IntVar(&cfg.ReconcileBatchSize, "reconcile-batch", cfg.ReconcileBatchSize, "Maximum followups retried per run")
	fs.IntVar(&cfg.ReconcileMaxAttempts, "reconcile-attempts", cfg.ReconcileMaxAttempts, "Retries before a followup is abandoned")
	fs.DurationVar(&cfg.ReconcileInterval, "reconcile-interval", cfg.ReconcileInterval, "Interval between scheduled reconcile runs")
	fs.BoolVar(&cfg.SchedulerEnabled, "scheduler", cfg.SchedulerEnabled, "Run jobs on an in-process schedule")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	cfg.normalize()

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	return cfg, nil
}

func (c *Config) normalize() {
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.DrawBatchSize <= 0 {
		c.DrawBatchSize = defaultDrawBatchSize
	}
	if c.DrawGroupSize <= 0 {
		c.DrawGroupSize = defaultDrawGroupSize
	}
	if c.DrawGroupPause < 0 {
		c.DrawGroupPause = defaultDrawGroupPause
	}
	if c.DrawInterval <= 0 {
		c.DrawInterval = defaultDrawInterval
	}
	if c.NumberOffset <= 0 {
		c.NumberOffset = defaultNumberOffset
	}
	if c.ReclaimBatchSize <= 0 {
		c.ReclaimBatchSize = defaultReclaimBatchSize
	}
	if c.OrderTimeout <= 0 {
		c.OrderTimeout = defaultOrderTimeout
	}
	if c.ReclaimInterval <= 0 {
		c.ReclaimInterval = defaultReclaimInterval
	}
	if c.ReconcileBatchSize <= 0 {
		c.ReconcileBatchSize = defaultReconcileBatchSize
	}
	if c.ReconcileMaxAttempts <= 0 {
		c.ReconcileMaxAttempts = defaultReconcileMaxAttempts
	}
	if c.ReconcileInterval <= 0 {
		c.ReconcileInterval = defaultReconcileInterval
	}
}
