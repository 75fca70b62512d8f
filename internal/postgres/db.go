package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ariefcatur/go-catalog-orders/internal/apperr"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultMaxConns = 8

// Connect opens a pool against dsn and pings it. maxConns <= 0 keeps the
// default. Order transactions hold product row locks for their whole
// duration, so the pool bounds how many baskets reserve at once.
func Connect(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	const op = "postgres.Connect"
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, fmt.Errorf("parse dsn: %w", err))
	}
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, op, fmt.Errorf("open pool: %w", err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperr.Wrap(apperr.KindInternal, op, fmt.Errorf("ping: %w", err))
	}
	return pool, nil
}
