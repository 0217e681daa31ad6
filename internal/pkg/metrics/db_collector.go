package metrics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolStats is the subset of *pgxpool.Stat exported as gauges.
type PoolStats interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
	MaxConns() int32
}

// RecordPoolStats updates the connection pool gauges from stats.
func RecordPoolStats(stats PoolStats) {
	DBPoolConnections.WithLabelValues("in_use").Set(float64(stats.AcquiredConns()))
	DBPoolConnections.WithLabelValues("idle").Set(float64(stats.IdleConns()))
	DBPoolConnections.WithLabelValues("total").Set(float64(stats.TotalConns()))
	DBPoolConnections.WithLabelValues("max").Set(float64(stats.MaxConns()))
}

// CollectPoolStats records pool gauges immediately and then every interval
// until ctx is done.
func CollectPoolStats(ctx context.Context, pool *pgxpool.Pool, interval time.Duration) {
	RecordPoolStats(pool.Stat())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			RecordPoolStats(pool.Stat())
		case <-ctx.Done():
			return
		}
	}
}
