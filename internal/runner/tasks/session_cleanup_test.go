package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divawifi/wifi/internal/models"
	"github.com/divawifi/wifi/internal/runner"
	"github.com/divawifi/wifi/internal/session"
)

type failingSweeper struct{}

func (failingSweeper) Sweep(context.Context) (int, error) { return 0, errors.New("redis down") }

func TestSessionCleanupSchedule(t *testing.T) {
	assert.Equal(t, "@every 60s", NewSessionCleanupTask(nil, 0, nil).Schedule())
	assert.Equal(t, "@every 1s", NewSessionCleanupTask(nil, time.Millisecond, nil).Schedule())
	assert.Equal(t, "@every 300s", NewSessionCleanupTask(nil, 5*time.Minute, nil).Schedule())
}

func TestSessionCleanupRun(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := session.NewMemoryStore()
	store.SetClock(func() time.Time { return now })
	table := session.NewTable(store, 10*time.Minute, session.WithClock(func() time.Time { return now }))

	acc := &models.UserAccount{FirstName: "Jane", LastName: "Doe"}
	require.NoError(t, table.Add(ctx, &models.Session{ID: "a", ClientIP: "1.2.3.4", Account: acc}, 0))
	require.NoError(t, table.Add(ctx, &models.Session{ID: "b", ClientIP: "1.2.3.4", Account: acc}, time.Hour))
	now = now.Add(20 * time.Minute)

	task := NewSessionCleanupTask(table, time.Minute, nil)
	require.NoError(t, task.Run(ctx))
	assert.Equal(t, 1, table.Count(ctx))

	assert.Error(t, NewSessionCleanupTask(failingSweeper{}, time.Minute, nil).Run(ctx))
}

type badSchedule struct{ runner.Task }

func (badSchedule) Schedule() string { return "whenever" }

func TestRunnerRegisters(t *testing.T) {
	r := runner.New(nil)
	require.NoError(t, r.Register(NewSessionCleanupTask(failingSweeper{}, time.Minute, nil)))
	assert.Error(t, r.Register(badSchedule{NewSessionCleanupTask(failingSweeper{}, time.Minute, nil)}))
	r.Start()
	r.Stop()
}

type countingPruner struct{ calls int }

func (p *countingPruner) Prune() int {
	p.calls++
	return 3
}

func TestRateLimitPrune(t *testing.T) {
	p := &countingPruner{}
	task := NewRateLimitPruneTask(p, nil)
	assert.Equal(t, "ratelimit-prune", task.Name())
	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, 1, p.calls)
	require.NoError(t, runner.New(nil).Register(task))
}

type checkerFunc func(context.Context) error

func (f checkerFunc) Check(ctx context.Context) error { return f(ctx) }

func TestDBHealth(t *testing.T) {
	ctx := context.Background()
	ok := NewDBHealthTask(checkerFunc(func(context.Context) error { return nil }), nil)
	assert.Equal(t, "@every 30s", ok.Schedule())
	require.NoError(t, ok.Run(ctx))

	down := NewDBHealthTask(checkerFunc(func(context.Context) error { return errors.New("connection refused") }), nil)
	assert.Error(t, down.Run(ctx))
}
