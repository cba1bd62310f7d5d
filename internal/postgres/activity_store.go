package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonwraymond/healthgate/internal/activity"
)

// ActivityStore writes activity_log directly. It is the fallback when the
// GraphQL engine is not configured.
type ActivityStore struct {
	pool *pgxpool.Pool
}

// NewActivityStore creates a store on pool.
func NewActivityStore(pool *pgxpool.Pool) *ActivityStore {
	return &ActivityStore{pool: pool}
}

// Create inserts one activity.
func (s *ActivityStore) Create(ctx context.Context, action string) (activity.Activity, error) {
	const query = `INSERT INTO activity_log (action) VALUES ($1) RETURNING id, timestamp, action`

	rows, err := s.pool.Query(ctx, query, action)
	if err != nil {
		return activity.Activity{}, fmt.Errorf("postgres: insert activity: %w", err)
	}
	a, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[activity.Activity])
	if err != nil {
		return activity.Activity{}, fmt.Errorf("postgres: insert activity: %w", err)
	}
	return a, nil
}

// CreateMany inserts activities in one statement.
func (s *ActivityStore) CreateMany(ctx context.Context, actions []string) ([]activity.Activity, error) {
	const query = `INSERT INTO activity_log (action)
        SELECT unnest($1::varchar[]) RETURNING id, timestamp, action`

	rows, err := s.pool.Query(ctx, query, actions)
	if err != nil {
		return nil, fmt.Errorf("postgres: insert activities: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[activity.Activity])
	if err != nil {
		return nil, fmt.Errorf("postgres: insert activities: %w", err)
	}
	return out, nil
}

// Recent returns the newest activities first.
func (s *ActivityStore) Recent(ctx context.Context, limit int) ([]activity.Activity, error) {
	const query = `SELECT id, timestamp, action FROM activity_log ORDER BY timestamp DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent activities: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[activity.Activity])
	if err != nil {
		return nil, fmt.Errorf("postgres: recent activities: %w", err)
	}
	return out, nil
}

// Stats counts activities since a time and lists distinct actions.
func (s *ActivityStore) Stats(ctx context.Context, since time.Time) (activity.Stats, error) {
	stats := activity.Stats{Since: since}
	ts := since.UTC()

	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM activity_log WHERE timestamp >= $1`, ts,
	).Scan(&stats.Total); err != nil {
		return activity.Stats{}, fmt.Errorf("postgres: activity stats: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT action FROM activity_log WHERE timestamp >= $1 ORDER BY action`, ts)
	if err != nil {
		return activity.Stats{}, fmt.Errorf("postgres: activity stats: %w", err)
	}
	actions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return activity.Stats{}, fmt.Errorf("postgres: activity stats: %w", err)
	}
	stats.Actions = actions
	return stats, nil
}

// Count returns the total number of activities.
func (s *ActivityStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM activity_log`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: activity count: %w", err)
	}
	return n, nil
}

var _ activity.Store = (*ActivityStore)(nil)
