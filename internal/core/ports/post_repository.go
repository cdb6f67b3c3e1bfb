package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ashifa-1/cms-backend/internal/core/domain"
)

// ApplyFunc mutates a post in place under the row lock. It receives the
// post's state as currently persisted and returns the revision to append
// (nil when the mutation is not content-affecting) and whether the row
// should be written at all. Returning dirty=false makes the mutation a
// no-op: nothing is written and the version counter is untouched.
type ApplyFunc func(p *domain.Post) (rev *domain.PostRevision, dirty bool, err error)

// PostRepository defines persistence operations for posts and their revisions.
type PostRepository interface {
	// Create inserts a new post. A slug collision surfaces as
	// domain.ErrSlugConflict, a missing author as domain.ErrInvalidAuthor.
	Create(ctx context.Context, p *domain.Post) error

	FindByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Post, error)

	// Mutate runs apply against the post inside a single transaction holding
	// a row-level exclusive lock. When apply reports dirty, the returned
	// revision (if any) is appended and the post is written back with its
	// version counter incremented by one; revision insert and post update
	// commit atomically.
	Mutate(ctx context.Context, id uuid.UUID, apply ApplyFunc) (*domain.Post, error)

	// Delete removes the post and all of its revisions in one transaction.
	Delete(ctx context.Context, id uuid.UUID) error

	ListByAuthor(ctx context.Context, authorID uuid.UUID, skip, limit int) ([]*domain.Post, error)

	// ListPublished returns published posts ordered by published_at
	// descending with id ascending as tie-breaker.
	ListPublished(ctx context.Context, skip, limit int) ([]*domain.Post, error)

	// ListScheduledDue returns scheduled posts whose scheduled_at has passed
	// according to the database clock.
	ListScheduledDue(ctx context.Context, limit int) ([]*domain.Post, error)

	// SearchPublished ranks published posts by a full-text match over title
	// and body, title weighted higher. Order: rank desc, published_at desc,
	// id asc.
	SearchPublished(ctx context.Context, query string, skip, limit int) ([]*domain.Post, error)

	// ListRevisions returns a post's revisions ordered by version descending.
	ListRevisions(ctx context.Context, postID uuid.UUID) ([]*domain.PostRevision, error)
	FindRevision(ctx context.Context, postID, revisionID uuid.UUID) (*domain.PostRevision, error)
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create inserts a new user. A duplicate email surfaces as
	// domain.ErrUserExists.
	Create(ctx context.Context, u *domain.User) error
	// FindByEmail matches case-insensitively.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}
