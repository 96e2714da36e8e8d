package main

import (
	"context"
	"testing"
	"time"

	"github.com/divawifi/wifi/internal/config"
	"github.com/divawifi/wifi/internal/runner"
)

type noopSweeper struct{}

func (noopSweeper) Sweep(context.Context) (int, error) { return 0, nil }

func TestBuildTasksDefaultsWhenNil(t *testing.T) {
	jobs := buildTasks(nil, noopSweeper{}, nil, nil, nil)
	if len(jobs) != 1 {
		t.Fatalf("expected only the session sweep, got %d tasks", len(jobs))
	}
	if job := findTask(jobs, "session-cleanup"); job == nil || job.Schedule() != "@every 60s" {
		t.Fatalf("unexpected session sweep: %v", job)
	}
}

func TestBuildTasksAddsPruneWithLimiter(t *testing.T) {
	cfg := &config.Config{LoginRateLimit: 5}
	jobs := buildTasks(cfg, noopSweeper{}, nil, newRateLimiter(cfg), nil)
	if findTask(jobs, "ratelimit-prune") == nil {
		t.Fatalf("expected ratelimit-prune task when limiting is enabled")
	}

	cfg.LoginRateLimit = 0
	if newRateLimiter(cfg) != nil {
		t.Fatalf("expected no limiter for LoginRateLimit 0")
	}
}

func TestBuildTasksSweepsFasterThanShortTimeouts(t *testing.T) {
	cfg := &config.Config{}
	cfg.Session.Timeout = 30 * time.Second

	job := findTask(buildTasks(cfg, noopSweeper{}, nil, nil, nil), "session-cleanup")
	if job == nil || job.Schedule() != "@every 30s" {
		t.Fatalf("expected @every 30s schedule, got %v", job)
	}
}

type okChecker struct{}

func (okChecker) Check(context.Context) error { return nil }

func TestBuildTasksAddsDBHealth(t *testing.T) {
	jobs := buildTasks(nil, noopSweeper{}, okChecker{}, nil, nil)
	if findTask(jobs, "db-health") == nil {
		t.Fatalf("expected db-health task when a database is given")
	}
}

func findTask(jobs []runner.Task, name string) runner.Task {
	for _, job := range jobs {
		if job != nil && job.Name() == name {
			return job
		}
	}
	return nil
}
