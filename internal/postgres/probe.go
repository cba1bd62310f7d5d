package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonwraymond/healthgate/health"
)

// Probe is the health.DatabaseProbe for a pool.
type Probe struct {
	pool *pgxpool.Pool
}

// NewProbe creates a probe for pool.
func NewProbe(pool *pgxpool.Pool) *Probe {
	return &Probe{pool: pool}
}

// CheckConnection acquires a connection, runs SELECT NOW() and releases it.
func (p *Probe) CheckConnection(ctx context.Context) health.Result {
	start := time.Now()

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return health.Down("database unreachable", err).WithDuration(time.Since(start))
	}
	defer conn.Release()

	var serverTime time.Time
	if err := conn.QueryRow(ctx, "SELECT NOW()").Scan(&serverTime); err != nil {
		return health.Down("database query failed", err).WithDuration(time.Since(start))
	}

	stat := p.pool.Stat()
	return health.Up("database reachable").
		WithDetails(map[string]any{
			"server_time":    serverTime.UTC(),
			"total_conns":    stat.TotalConns(),
			"acquired_conns": stat.AcquiredConns(),
		}).
		WithDuration(time.Since(start))
}

var _ health.DatabaseProbe = (*Probe)(nil)
