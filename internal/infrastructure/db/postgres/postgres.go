// Package postgres is the authoritative store for users, posts, and
// revisions, backed by pgx. Multi-row writes run inside single transactions;
// concurrent updates to a post are serialized with row-level locks.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	connectRetries  = 10
	connectInterval = 3 * time.Second
)

// Config captures the settings for establishing a Postgres connection.
type Config struct {
	URL string
}

// Connect initialises a connection pool and validates connectivity with a
// ping, retrying while the database container is still coming up.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres config: %w", err)
	}

	var pingErr error
	for i := 0; i < connectRetries; i++ {
		if pingErr = pool.Ping(ctx); pingErr == nil {
			return pool, nil
		}
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(connectInterval):
		}
	}

	pool.Close()
	return nil, fmt.Errorf("postgres ping: %w", pingErr)
}
