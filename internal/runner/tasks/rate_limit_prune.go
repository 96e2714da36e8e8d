package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/divawifi/wifi/internal/runner"
)

// Pruner drops idle rate limit buckets. middleware.RateLimiter implements
// it.
type Pruner interface {
	Prune() int
}

type rateLimitPruneTask struct {
	limiter Pruner
	logger  *slog.Logger
}

// NewRateLimitPruneTask prunes idle limiter buckets every ten minutes.
func NewRateLimitPruneTask(limiter Pruner, logger *slog.Logger) runner.Task {
	if logger == nil {
		logger = slog.Default()
	}
	return &rateLimitPruneTask{limiter: limiter, logger: logger}
}

func (t *rateLimitPruneTask) Name() string           { return "ratelimit-prune" }
func (t *rateLimitPruneTask) Schedule() string       { return "@every 10m" }
func (t *rateLimitPruneTask) Timeout() time.Duration { return 10 * time.Second }

func (t *rateLimitPruneTask) Run(context.Context) error {
	if n := t.limiter.Prune(); n > 0 {
		t.logger.Debug("idle rate limit buckets removed", "count", n)
	}
	return nil
}
