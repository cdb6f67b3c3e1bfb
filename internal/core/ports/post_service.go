package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ashifa-1/cms-backend/internal/core/domain"
)

// Principal identifies the authenticated actor behind a request.
type Principal struct {
	UserID uuid.UUID
	Role   string
}

// CreatePostInput carries the fields accepted on post creation. Slug is
// optional: when empty the service derives one from the title.
type CreatePostInput struct {
	Title string
	Body  string
	Slug  string
}

// UpdatePostInput carries the mutable fields of a post. Nil means "leave
// unchanged". Status, timestamps, version, and author are not updatable
// through this path by construction.
type UpdatePostInput struct {
	Title *string
	Body  *string
	Slug  *string
}

// Page is an offset/limit window. Services clamp Limit into the configured
// bounds and floor Skip at zero rather than rejecting out-of-range values.
type Page struct {
	Skip  int
	Limit int
}

// PostService defines the use-case operations of the content lifecycle.
type PostService interface {
	Create(ctx context.Context, actor Principal, in CreatePostInput) (*domain.Post, error)
	Update(ctx context.Context, actor Principal, id uuid.UUID, in UpdatePostInput) (*domain.Post, error)
	Schedule(ctx context.Context, actor Principal, id uuid.UUID, when time.Time) (*domain.Post, error)
	Publish(ctx context.Context, actor Principal, id uuid.UUID) (*domain.Post, error)
	Unschedule(ctx context.Context, actor Principal, id uuid.UUID) (*domain.Post, error)
	Delete(ctx context.Context, actor Principal, id uuid.UUID) error
	Restore(ctx context.Context, actor Principal, postID, revisionID uuid.UUID) (*domain.Post, error)

	Get(ctx context.Context, actor Principal, id uuid.UUID) (*domain.Post, error)
	ListMine(ctx context.Context, actor Principal, page Page) ([]*domain.Post, error)
	ListRevisions(ctx context.Context, actor Principal, id uuid.UUID) ([]*domain.PostRevision, error)

	// Public reads, served through the cache coordinator.
	GetPublic(ctx context.Context, idOrSlug string) (*domain.Post, error)
	ListPublished(ctx context.Context, page Page) ([]*domain.Post, error)
	SearchPublished(ctx context.Context, query string, page Page) ([]*domain.Post, error)
}

// AuthService defines registration and login.
type AuthService interface {
	Register(ctx context.Context, email, password, role string) (*domain.User, error)
	// Login returns a signed bearer token and the matched user.
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
