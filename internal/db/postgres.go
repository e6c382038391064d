package db

import (
	"context"
	"time"

	"github.com/HarshitFusion/real-time-bus-driver-panel/internal/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
)

var newPoolFn = pgxpool.New
var pingPoolFn = func(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}
var pingMaxElapsed = 10 * time.Second

// ConnectPostgres opens a pool and verifies connectivity. The ping is
// retried with exponential backoff so a backend starting alongside its
// database does not flap.
func ConnectPostgres(cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := newPoolFn(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = pingMaxElapsed

	err = backoff.Retry(func() error {
		return pingPoolFn(ctx, pool)
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
