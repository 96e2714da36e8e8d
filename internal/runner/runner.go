// Package runner schedules the panel's background tasks on a cron engine.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is one periodic job.
type Task interface {
	Name() string
	// Schedule is a cron spec with seconds, or an "@every" descriptor.
	Schedule() string
	Timeout() time.Duration
	Run(ctx context.Context) error
}

// Runner owns the cron engine and the registered tasks.
type Runner struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu    sync.Mutex
	tasks []Task
	ctx   context.Context
	stop  context.CancelFunc
}

// New creates a runner using the UTC clock.
func New(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Runner{
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger,
		ctx:    ctx,
		stop:   stop,
	}
}

// Register schedules t. Tasks may be registered before or after Start.
func (r *Runner) Register(t Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.cron.AddFunc(t.Schedule(), func() { r.RunOnce(r.ctx, t) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", t.Name(), t.Schedule(), err)
	}
	r.tasks = append(r.tasks, t)
	r.logger.Info("task registered", "task", t.Name(), "schedule", t.Schedule())
	return nil
}

// RunOnce executes t under its timeout and logs the outcome.
func (r *Runner) RunOnce(ctx context.Context, t Task) {
	ctx, cancel := context.WithTimeout(ctx, t.Timeout())
	defer cancel()
	start := time.Now()
	if err := t.Run(ctx); err != nil {
		r.logger.Error("task failed", "task", t.Name(), "duration", time.Since(start), "error", err)
		return
	}
	r.logger.Debug("task done", "task", t.Name(), "duration", time.Since(start))
}

// Start begins scheduling.
func (r *Runner) Start() { r.cron.Start() }

// Stop cancels running tasks and waits for them to return.
func (r *Runner) Stop() {
	r.stop()
	<-r.cron.Stop().Done()
}
