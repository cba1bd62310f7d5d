// Package postgres connects the gateway to its primary database and provides
// the database probe and the direct-SQL activity store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonwraymond/healthgate/observe"
	"github.com/jonwraymond/healthgate/resilience"
)

// ErrInvalidConfig indicates a connection string pgx cannot parse.
var ErrInvalidConfig = errors.New("postgres: invalid config")

// Config configures the connection pool.
type Config struct {
	URL string

	// MaxConns caps the pool. Zero keeps the pgx default.
	MaxConns int32

	// ConnectAttempts is how many times Connect tries before giving up.
	// Default: 5
	ConnectAttempts int

	// ConnectDelay is the fixed wait between attempts.
	// Default: 2 seconds
	ConnectDelay time.Duration
}

// Connect opens a pool and verifies it with a ping, retrying with a fixed
// delay while the database comes up.
func Connect(ctx context.Context, config Config, logger observe.Logger) (*pgxpool.Pool, error) {
	if config.ConnectAttempts <= 0 {
		config.ConnectAttempts = 5
	}
	if config.ConnectDelay <= 0 {
		config.ConnectDelay = 2 * time.Second
	}
	if logger == nil {
		logger = observe.NewNopLogger()
	}

	poolConfig, err := pgxpool.ParseConfig(config.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}

	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  config.ConnectAttempts,
		InitialDelay: config.ConnectDelay,
		Strategy:     resilience.BackoffConstant,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			logger.Warn(ctx, "database not ready, retrying",
				observe.Field{Key: "attempt", Value: attempt},
				observe.Field{Key: "max_attempts", Value: config.ConnectAttempts},
				observe.Field{Key: "delay", Value: delay.String()},
				observe.Field{Key: "error", Value: err},
			)
		},
	})

	var pool *pgxpool.Pool
	err = retry.Execute(ctx, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, poolConfig.Copy())
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	logger.Info(ctx, "database connected",
		observe.Field{Key: "host", Value: poolConfig.ConnConfig.Host},
		observe.Field{Key: "database", Value: poolConfig.ConnConfig.Database},
	)
	return pool, nil
}
