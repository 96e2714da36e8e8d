package main

import (
	"log/slog"

	"github.com/divawifi/wifi/internal/config"
	"github.com/divawifi/wifi/internal/constants"
	"github.com/divawifi/wifi/internal/middleware"
	"github.com/divawifi/wifi/internal/runner"
	"github.com/divawifi/wifi/internal/runner/tasks"
)

// buildTasks returns the background tasks the configuration asks for. The
// session sweep always runs; the database check runs when db is set and
// pruning runs only with a rate limiter.
func buildTasks(cfg *config.Config, sessions tasks.Sweeper, db tasks.HealthChecker, limiter *middleware.RateLimiter, logger *slog.Logger) []runner.Task {
	interval := constants.SessionSweepInterval
	if cfg != nil && cfg.Session.Timeout > 0 && cfg.Session.Timeout < interval {
		interval = cfg.Session.Timeout
	}
	jobs := []runner.Task{tasks.NewSessionCleanupTask(sessions, interval, logger)}
	if db != nil {
		jobs = append(jobs, tasks.NewDBHealthTask(db, logger))
	}
	if limiter != nil {
		jobs = append(jobs, tasks.NewRateLimitPruneTask(limiter, logger))
	}
	return jobs
}

// newRateLimiter returns nil when LoginRateLimit disables limiting.
func newRateLimiter(cfg *config.Config) *middleware.RateLimiter {
	if cfg.LoginRateLimit <= 0 {
		return nil
	}
	return middleware.NewRateLimiter(cfg.LoginRateLimit)
}
