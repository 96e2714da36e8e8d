package addon

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/divawifi/wifi/internal/apierrors"
)

// CodeStatsUnavailable is answered when a grid count fails.
const CodeStatsUnavailable = "stats:unavailable"

// StatsAddon publishes grid totals as JSON.
type StatsAddon struct {
	host   Host
	logger *slog.Logger
}

func (s *StatsAddon) Name() string { return "Stats" }

func (s *StatsAddon) Init(_ context.Context, host Host) error {
	s.host = host
	s.logger = host.Logger()
	return nil
}

func (s *StatsAddon) Routes() []Route {
	return []Route{{Method: http.MethodGet, Path: "", Handler: s.handleStats}}
}

func (s *StatsAddon) Shutdown(context.Context) error { return nil }

func (s *StatsAddon) EnumerateErrors() []apierrors.ErrorCode {
	return []apierrors.ErrorCode{
		{Code: CodeStatsUnavailable, Message: "Grid statistics unavailable", HTTPStatus: http.StatusServiceUnavailable},
	}
}

func (s *StatsAddon) handleStats(c *gin.Context) {
	ctx := c.Request.Context()
	svc := s.host.Grid()

	users, err := svc.Accounts.CountUserAccounts(ctx)
	if err != nil {
		s.logger.Error("stats: count users", "error", err)
		apierrors.Error(c, CodeStatsUnavailable)
		return
	}
	online, err := svc.Presence.CountOnline(ctx)
	if err != nil {
		s.logger.Error("stats: count online", "error", err)
		apierrors.Error(c, CodeStatsUnavailable)
		return
	}
	regions, err := svc.Grid.GetRegions(ctx)
	if err != nil {
		s.logger.Error("stats: list regions", "error", err)
		apierrors.Error(c, CodeStatsUnavailable)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"users":   users,
		"online":  online,
		"regions": len(regions),
	})
}
