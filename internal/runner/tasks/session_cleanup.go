// Package tasks provides background task implementations for the runner.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/divawifi/wifi/internal/constants"
	"github.com/divawifi/wifi/internal/runner"
)

// Sweeper drops expired sessions. session.Table implements it.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// SessionCleanupTask sweeps expired web sessions.
type SessionCleanupTask struct {
	sessions Sweeper
	interval time.Duration
	logger   *slog.Logger
}

// NewSessionCleanupTask sweeps sessions every interval; zero selects the
// default sweep interval.
func NewSessionCleanupTask(sessions Sweeper, interval time.Duration, logger *slog.Logger) runner.Task {
	if interval <= 0 {
		interval = constants.SessionSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionCleanupTask{sessions: sessions, interval: interval, logger: logger}
}

// Name returns the task name.
func (t *SessionCleanupTask) Name() string {
	return "session-cleanup"
}

// Schedule runs the sweep every interval, rounded down to whole seconds.
func (t *SessionCleanupTask) Schedule() string {
	secs := int(t.interval.Seconds())
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("@every %ds", secs)
}

// Timeout returns the task timeout.
func (t *SessionCleanupTask) Timeout() time.Duration {
	return 30 * time.Second
}

// Run removes expired sessions.
func (t *SessionCleanupTask) Run(ctx context.Context) error {
	n, err := t.sessions.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweep sessions: %w", err)
	}
	if n > 0 {
		t.logger.Info("expired sessions removed", "count", n)
	}
	return nil
}
