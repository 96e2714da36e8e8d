package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/divawifi/wifi/internal/metrics"
)

const pingTimeout = 5 * time.Second

// Pool is the part of *sql.DB (and *sqlx.DB) the monitor needs.
type Pool interface {
	PingContext(ctx context.Context) error
	Stats() sql.DBStats
}

// PoolMonitor checks the database connection and publishes pool statistics.
type PoolMonitor struct {
	db Pool
}

// NewPoolMonitor wraps db.
func NewPoolMonitor(db Pool) *PoolMonitor {
	return &PoolMonitor{db: db}
}

// Check pings the database and records the pool gauges. A failed ping is
// counted and returned; the gauges are updated either way.
func (m *PoolMonitor) Check(ctx context.Context) error {
	c := metrics.Get()
	stats := m.db.Stats()
	c.DBConnections.WithLabelValues("open").Set(float64(stats.OpenConnections))
	c.DBConnections.WithLabelValues("in_use").Set(float64(stats.InUse))
	c.DBConnections.WithLabelValues("idle").Set(float64(stats.Idle))
	c.DBWaitCount.Set(float64(stats.WaitCount))

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := m.db.PingContext(ctx); err != nil {
		c.DBPingFailures.Inc()
		return fmt.Errorf("database health check: %w", err)
	}
	return nil
}
