package postgres

import (
	"context"
	"fmt"
	"time"

	"challenge_desk/pkg/db"

	"go.uber.org/fx"
)

const connectTimeout = 10 * time.Second

// Connect opens the master pool, pings it and closes it when the app stops.
func Connect(lc fx.Lifecycle, dsn string) (*db.PgTxManager, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	poolMaster, err := db.NewPool(ctx, db.PoolConfig{
		DSN: dsn,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create poolMaster: %w", err)
	}

	if err = poolMaster.Ping(ctx); err != nil {
		poolMaster.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	m := db.NewPgTxManager(poolMaster)
	lc.Append(fx.StopHook(m.Close))
	return m, nil
}
