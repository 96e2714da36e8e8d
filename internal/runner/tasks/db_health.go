package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/divawifi/wifi/internal/runner"
)

// HealthChecker probes a backing service. database.PoolMonitor implements
// it.
type HealthChecker interface {
	Check(ctx context.Context) error
}

type dbHealthTask struct {
	checker HealthChecker
	logger  *slog.Logger
}

// NewDBHealthTask pings the database and samples its pool every 30 seconds.
func NewDBHealthTask(checker HealthChecker, logger *slog.Logger) runner.Task {
	if logger == nil {
		logger = slog.Default()
	}
	return &dbHealthTask{checker: checker, logger: logger}
}

func (t *dbHealthTask) Name() string           { return "db-health" }
func (t *dbHealthTask) Schedule() string       { return "@every 30s" }
func (t *dbHealthTask) Timeout() time.Duration { return 10 * time.Second }

func (t *dbHealthTask) Run(ctx context.Context) error {
	if err := t.checker.Check(ctx); err != nil {
		t.logger.Warn("database unhealthy", "error", err)
		return err
	}
	return nil
}
