package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashifa-1/cms-backend/internal/core/domain"
	"github.com/ashifa-1/cms-backend/internal/core/ports"
)

const postColumns = `id, author_id, slug, title, body, status, scheduled_at, published_at, version, created_at, updated_at`

type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

// Create inserts a new post row.
func (r *PostRepository) Create(ctx context.Context, p *domain.Post) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO posts (`+postColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.AuthorID, p.Slug, p.Title, p.Body, p.Status,
		p.ScheduledAt, p.PublishedAt, p.Version, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return translate(err)
	}
	return nil
}

func (r *PostRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	return scanPost(row)
}

func (r *PostRepository) FindBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = $1`, slug)
	return scanPost(row)
}

// Mutate runs apply against the post under a row-level exclusive lock. When
// apply reports dirty, the revision (if any) and the updated row commit
// atomically with the version counter advanced by one; otherwise the
// transaction rolls back without writing.
func (r *PostRepository) Mutate(ctx context.Context, id uuid.UUID, apply ports.ApplyFunc) (*domain.Post, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, translate(err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1 FOR UPDATE`, id)
	post, err := scanPost(row)
	if err != nil {
		return nil, err
	}

	rev, dirty, err := apply(post)
	if err != nil {
		return nil, err
	}
	if !dirty {
		return post, nil
	}

	if rev != nil {
		if err := insertRevision(ctx, tx, rev); err != nil {
			return nil, err
		}
	}

	post.Version++
	post.UpdatedAt = time.Now().UTC()

	_, err = tx.Exec(ctx, `
		UPDATE posts
		SET slug = $2, title = $3, body = $4, status = $5,
		    scheduled_at = $6, published_at = $7, version = $8, updated_at = $9
		WHERE id = $1`,
		post.ID, post.Slug, post.Title, post.Body, post.Status,
		post.ScheduledAt, post.PublishedAt, post.Version, post.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, translate(err)
	}
	return post, nil
}

// Delete removes the post; revisions go with it via the cascade, inside the
// same transaction as the delete statement.
func (r *PostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (r *PostRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID, skip, limit int) ([]*domain.Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE author_id = $1
		ORDER BY updated_at DESC, id ASC
		LIMIT $2 OFFSET $3`,
		authorID, limit, skip,
	)
	if err != nil {
		return nil, translate(err)
	}
	return scanPosts(rows, limit)
}

func (r *PostRepository) ListPublished(ctx context.Context, skip, limit int) ([]*domain.Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE status = 'published'
		ORDER BY published_at DESC, id ASC
		LIMIT $1 OFFSET $2`,
		limit, skip,
	)
	if err != nil {
		return nil, translate(err)
	}
	return scanPosts(rows, limit)
}

// ListScheduledDue uses the database clock for the due predicate so worker
// clock skew cannot promote early.
func (r *PostRepository) ListScheduledDue(ctx context.Context, limit int) ([]*domain.Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE status = 'scheduled' AND scheduled_at <= now()
		ORDER BY scheduled_at ASC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, translate(err)
	}
	return scanPosts(rows, limit)
}

func (r *PostRepository) SearchPublished(ctx context.Context, query string, skip, limit int) ([]*domain.Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE status = 'published'
		  AND search_vector @@ plainto_tsquery('english', $1)
		ORDER BY ts_rank(search_vector, plainto_tsquery('english', $1)) DESC,
		         published_at DESC, id ASC
		LIMIT $2 OFFSET $3`,
		query, limit, skip,
	)
	if err != nil {
		return nil, translate(err)
	}
	return scanPosts(rows, limit)
}

const revisionColumns = `id, post_id, version, title, body, status, scheduled_at, published_at, actor_id, captured_at`

func (r *PostRepository) ListRevisions(ctx context.Context, postID uuid.UUID) ([]*domain.PostRevision, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+revisionColumns+` FROM post_revisions
		WHERE post_id = $1
		ORDER BY version DESC`,
		postID,
	)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var revs []*domain.PostRevision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return revs, nil
}

func (r *PostRepository) FindRevision(ctx context.Context, postID, revisionID uuid.UUID) (*domain.PostRevision, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+revisionColumns+` FROM post_revisions
		WHERE post_id = $1 AND id = $2`,
		postID, revisionID,
	)
	rev, err := scanRevision(row)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			return nil, domain.ErrRevisionNotFound
		}
		return nil, err
	}
	return rev, nil
}

func insertRevision(ctx context.Context, tx pgx.Tx, rev *domain.PostRevision) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO post_revisions (`+revisionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rev.ID, rev.PostID, rev.Version, rev.Title, rev.Body, rev.Status,
		rev.ScheduledAt, rev.PublishedAt, rev.ActorID, rev.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("insert revision: %w", translate(err))
	}
	return nil
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var p domain.Post
	err := row.Scan(
		&p.ID, &p.AuthorID, &p.Slug, &p.Title, &p.Body, &p.Status,
		&p.ScheduledAt, &p.PublishedAt, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, translate(err)
	}
	return &p, nil
}

func scanPosts(rows pgx.Rows, capacity int) ([]*domain.Post, error) {
	defer rows.Close()

	posts := make([]*domain.Post, 0, capacity)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return posts, nil
}

func scanRevision(row pgx.Row) (*domain.PostRevision, error) {
	var rev domain.PostRevision
	err := row.Scan(
		&rev.ID, &rev.PostID, &rev.Version, &rev.Title, &rev.Body, &rev.Status,
		&rev.ScheduledAt, &rev.PublishedAt, &rev.ActorID, &rev.CapturedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, translate(err)
	}
	return &rev, nil
}
