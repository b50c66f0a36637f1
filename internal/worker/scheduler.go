package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is a periodic unit of work. Run is never invoked concurrently with itself.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs each job on its own ticker.
type Scheduler struct {
	jobs   []Job
	logger *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewScheduler constructs scheduler. Jobs without a positive interval or a
// run function are ignored.
func NewScheduler(logger *slog.Logger, jobs ...Job) *Scheduler {
	valid := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		if job.Interval <= 0 || job.Run == nil {
			logger.Warn("scheduled job ignored", slog.String("job", job.Name))
			continue
		}
		valid = append(valid, job)
	}
	return &Scheduler{jobs: valid, logger: logger}
}

// Jobs returns names of scheduled jobs.
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for _, job := range s.jobs {
		names = append(names, job.Name)
	}
	return names
}

// Start launches background loops. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(runCtx, job)
	}
}

// Stop cancels running jobs and waits for their loops to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.logger.Info("scheduled job started", slog.String("job", job.Name), slog.Duration("interval", job.Interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled job panicked", slog.String("job", job.Name), slog.Any("panic", r))
		}
	}()

	if err := job.Run(ctx); err != nil {
		s.logger.Error("scheduled job failed",
			slog.String("job", job.Name),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(started)))
		return
	}
	s.logger.Debug("scheduled job finished", slog.String("job", job.Name), slog.Duration("elapsed", time.Since(started)))
}
