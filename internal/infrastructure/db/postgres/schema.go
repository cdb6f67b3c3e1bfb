package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// statements bootstraps the schema. The tsvector column is stored and
// generated so the GIN index stays consistent without triggers; title is
// weighted above body for ranking.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            uuid PRIMARY KEY,
		email         text NOT NULL,
		password_hash text NOT NULL,
		role          text NOT NULL,
		created_at    timestamptz NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (lower(email))`,
	`CREATE TABLE IF NOT EXISTS posts (
		id           uuid PRIMARY KEY,
		author_id    uuid NOT NULL REFERENCES users(id),
		slug         text NOT NULL,
		title        text NOT NULL,
		body         text NOT NULL,
		status       text NOT NULL,
		scheduled_at timestamptz,
		published_at timestamptz,
		version      bigint NOT NULL,
		created_at   timestamptz NOT NULL,
		updated_at   timestamptz NOT NULL,
		search_vector tsvector GENERATED ALWAYS AS (
			setweight(to_tsvector('english', coalesce(title, '')), 'A') ||
			setweight(to_tsvector('english', coalesce(body, '')), 'B')
		) STORED
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS posts_slug_key ON posts (slug)`,
	`CREATE INDEX IF NOT EXISTS posts_status_published_at_idx ON posts (status, published_at DESC)`,
	`CREATE INDEX IF NOT EXISTS posts_status_scheduled_at_idx ON posts (status, scheduled_at)`,
	`CREATE INDEX IF NOT EXISTS posts_search_idx ON posts USING GIN (search_vector)`,
	`CREATE TABLE IF NOT EXISTS post_revisions (
		id           uuid PRIMARY KEY,
		post_id      uuid NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		version      bigint NOT NULL,
		title        text NOT NULL,
		body         text NOT NULL,
		status       text NOT NULL,
		scheduled_at timestamptz,
		published_at timestamptz,
		actor_id     uuid NOT NULL,
		captured_at  timestamptz NOT NULL,
		UNIQUE (post_id, version)
	)`,
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
