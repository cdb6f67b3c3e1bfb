package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ashifa-1/cms-backend/internal/core/domain"
	"github.com/ashifa-1/cms-backend/internal/core/ports"
)

// scheduleEpsilon is the minimum distance into the future a schedule must
// land; anything closer fails domain.ErrInvalidSchedule.
const scheduleEpsilon = time.Second

// maxSlugAttempts bounds the auto-suffix loop on slug collisions.
const maxSlugAttempts = 50

// Pagination holds the clamping bounds applied to every list operation.
type Pagination struct {
	DefaultLimit int
	MaxLimit     int
}

// Clamp normalises a page: negative skip floors at zero, limit falls back to
// the default when unset and caps at the maximum. Out-of-range values are
// adjusted, never rejected.
func (pg Pagination) Clamp(p ports.Page) ports.Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = pg.DefaultLimit
	}
	if p.Limit > pg.MaxLimit {
		p.Limit = pg.MaxLimit
	}
	return p
}

// PostService implements the content lifecycle: the draft/scheduled/published
// state machine, revision capture on every content-affecting write, and
// cache-aside reads with explicit invalidation.
type PostService struct {
	repo  ports.PostRepository
	cache ports.PostCache
	pages Pagination
	log   zerolog.Logger
}

func NewPostService(repo ports.PostRepository, cache ports.PostCache, pages Pagination, log zerolog.Logger) *PostService {
	if pages.DefaultLimit <= 0 {
		pages.DefaultLimit = 20
	}
	if pages.MaxLimit <= 0 {
		pages.MaxLimit = 100
	}
	return &PostService{repo: repo, cache: cache, pages: pages, log: log}
}

// Create makes a new draft. When no slug is supplied one is derived from the
// title; collisions on a derived slug are retried with -2, -3, … suffixes,
// while a collision on an explicit slug fails with domain.ErrSlugConflict.
func (s *PostService) Create(ctx context.Context, actor ports.Principal, in ports.CreatePostInput) (*domain.Post, error) {
	if err := validateContent(in.Title, in.Body); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	post := &domain.Post{
		ID:        uuid.New(),
		AuthorID:  actor.UserID,
		Title:     in.Title,
		Body:      in.Body,
		Status:    domain.StatusDraft,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if in.Slug != "" {
		post.Slug = in.Slug
		if err := s.repo.Create(ctx, post); err != nil {
			return nil, err
		}
	} else {
		base := Slugify(in.Title)
		var err error
		for i := 1; i <= maxSlugAttempts; i++ {
			if i == 1 {
				post.Slug = base
			} else {
				post.Slug = fmt.Sprintf("%s-%d", base, i)
			}
			err = s.repo.Create(ctx, post)
			if err == nil {
				break
			}
			if !isSlugConflict(err) {
				return nil, err
			}
		}
		if err != nil {
			return nil, fmt.Errorf("create post: exhausted slug candidates for %q: %w", base, err)
		}
	}

	s.log.Info().
		Str("post_id", post.ID.String()).
		Str("slug", post.Slug).
		Str("author_id", actor.UserID.String()).
		Msg("post created")

	return post, nil
}

// Update applies the provided fields. Title, body, and slug are the only
// reachable fields; status, timestamps, version, and author cannot be set
// through this path.
func (s *PostService) Update(ctx context.Context, actor ports.Principal, id uuid.UUID, in ports.UpdatePostInput) (*domain.Post, error) {
	title := ""
	body := ""
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, fmt.Errorf("title is required: %w", domain.ErrValidation)
		}
		title = *in.Title
	}
	if in.Body != nil {
		body = *in.Body
	}
	if err := validateLengths(title, body); err != nil {
		return nil, err
	}

	return s.mutate(ctx, actor, id, "post updated", func(p *domain.Post) error {
		if in.Title != nil {
			p.Title = *in.Title
		}
		if in.Body != nil {
			p.Body = *in.Body
		}
		if in.Slug != nil && *in.Slug != "" {
			p.Slug = *in.Slug
		}
		return nil
	})
}

// Schedule moves a draft or scheduled post to scheduled at when. Scheduling
// an already-scheduled post replaces the timestamp.
func (s *PostService) Schedule(ctx context.Context, actor ports.Principal, id uuid.UUID, when time.Time) (*domain.Post, error) {
	return s.mutate(ctx, actor, id, "post scheduled", func(p *domain.Post) error {
		if !p.Status.CanTransitionTo(domain.StatusScheduled) {
			return fmt.Errorf("schedule from %s: %w", p.Status, domain.ErrInvalidSchedule)
		}
		if !when.After(time.Now().Add(scheduleEpsilon)) {
			return fmt.Errorf("scheduled time must be in the future: %w", domain.ErrInvalidSchedule)
		}
		at := when.UTC()
		p.Status = domain.StatusScheduled
		p.ScheduledAt = &at
		p.PublishedAt = nil
		return nil
	})
}

// Publish transitions a draft or scheduled post to published immediately.
// Publishing an already-published post is a no-op.
func (s *PostService) Publish(ctx context.Context, actor ports.Principal, id uuid.UUID) (*domain.Post, error) {
	return s.mutate(ctx, actor, id, "post published", func(p *domain.Post) error {
		if p.Status == domain.StatusPublished {
			return nil
		}
		now := time.Now().UTC()
		p.Status = domain.StatusPublished
		p.PublishedAt = &now
		p.ScheduledAt = nil
		return nil
	})
}

// Unschedule returns a scheduled post to draft.
func (s *PostService) Unschedule(ctx context.Context, actor ports.Principal, id uuid.UUID) (*domain.Post, error) {
	return s.mutate(ctx, actor, id, "post unscheduled", func(p *domain.Post) error {
		if p.Status != domain.StatusScheduled {
			return fmt.Errorf("unschedule from %s: %w", p.Status, domain.ErrInvalidSchedule)
		}
		p.Status = domain.StatusDraft
		p.ScheduledAt = nil
		return nil
	})
}

// Delete removes the post and its revisions atomically.
func (s *PostService) Delete(ctx context.Context, actor ports.Principal, id uuid.UUID) error {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != actor.UserID {
		return domain.ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, ports.DeriveInvalidation(id, post.Slug, "", post.Status, post.Status))
	s.log.Info().Str("post_id", id.String()).Str("slug", post.Slug).Msg("post deleted")
	return nil
}

// Restore re-applies a revision's title and body as a regular
// content-affecting update, capturing the pre-restore state first.
func (s *PostService) Restore(ctx context.Context, actor ports.Principal, postID, revisionID uuid.UUID) (*domain.Post, error) {
	rev, err := s.repo.FindRevision(ctx, postID, revisionID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, actor, postID, "post restored", func(p *domain.Post) error {
		p.Title = rev.Title
		p.Body = rev.Body
		return nil
	})
}

// Get is the author-visible read; it bypasses the cache.
func (s *PostService) Get(ctx context.Context, actor ports.Principal, id uuid.UUID) (*domain.Post, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	return post, nil
}

// ListMine lists the actor's own posts in every status.
func (s *PostService) ListMine(ctx context.Context, actor ports.Principal, page ports.Page) ([]*domain.Post, error) {
	page = s.pages.Clamp(page)
	return s.repo.ListByAuthor(ctx, actor.UserID, page.Skip, page.Limit)
}

// ListRevisions returns the post's revision history, newest first.
func (s *PostService) ListRevisions(ctx context.Context, actor ports.Principal, id uuid.UUID) ([]*domain.PostRevision, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListRevisions(ctx, id)
}

// GetPublic serves a published post by id or slug through the cache.
// Unpublished posts are indistinguishable from absent ones.
func (s *PostService) GetPublic(ctx context.Context, idOrSlug string) (*domain.Post, error) {
	var key string
	var lookup func(context.Context) (*domain.Post, error)

	if id, err := uuid.Parse(idOrSlug); err == nil {
		key = ports.PostKey(id)
		lookup = func(ctx context.Context) (*domain.Post, error) { return s.repo.FindByID(ctx, id) }
	} else {
		key = ports.SlugKey(idOrSlug)
		lookup = func(ctx context.Context) (*domain.Post, error) { return s.repo.FindBySlug(ctx, idOrSlug) }
	}

	if post, ok := s.cache.GetPost(ctx, key); ok {
		return post, nil
	}

	post, err := lookup(ctx)
	if err != nil {
		return nil, err
	}
	if !post.IsPublished() {
		return nil, domain.ErrPostNotFound
	}

	s.cache.SetPost(ctx, key, post)
	return post, nil
}

// ListPublished serves one page of the published listing through the cache.
func (s *PostService) ListPublished(ctx context.Context, page ports.Page) ([]*domain.Post, error) {
	page = s.pages.Clamp(page)
	key := ports.ListKey(page.Skip, page.Limit)

	if posts, ok := s.cache.GetPage(ctx, key); ok {
		return posts, nil
	}

	posts, err := s.repo.ListPublished(ctx, page.Skip, page.Limit)
	if err != nil {
		return nil, err
	}

	s.cache.SetPage(ctx, key, posts)
	return posts, nil
}

// SearchPublished runs a ranked full-text query over the published corpus.
func (s *PostService) SearchPublished(ctx context.Context, query string, page ports.Page) ([]*domain.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty search query: %w", domain.ErrValidation)
	}

	page = s.pages.Clamp(page)
	key := ports.SearchKey(query, page.Skip, page.Limit)

	if posts, ok := s.cache.GetPage(ctx, key); ok {
		return posts, nil
	}

	posts, err := s.repo.SearchPublished(ctx, query, page.Skip, page.Limit)
	if err != nil {
		return nil, err
	}

	s.cache.SetPage(ctx, key, posts)
	return posts, nil
}

// mutate is the shared write path: it checks ownership under the row lock,
// runs apply, decides whether the mutation is content-affecting (revision)
// or a pure no-op (nothing written), and submits the invalidation batch
// after the transaction commits.
func (s *PostService) mutate(ctx context.Context, actor ports.Principal, id uuid.UUID, event string, apply func(p *domain.Post) error) (*domain.Post, error) {
	var batch ports.InvalidationBatch

	post, err := s.repo.Mutate(ctx, id, func(p *domain.Post) (*domain.PostRevision, bool, error) {
		if p.AuthorID != actor.UserID {
			return nil, false, domain.ErrForbidden
		}

		before := *p
		if err := apply(p); err != nil {
			return nil, false, err
		}

		contentChanged := !p.ContentEquals(&before)
		dirty := contentChanged || p.Slug != before.Slug
		if !dirty {
			return nil, false, nil
		}

		var rev *domain.PostRevision
		if contentChanged {
			rev = domain.SnapshotOf(&before, actor.UserID, time.Now().UTC())
		}

		batch = ports.DeriveInvalidation(id, before.Slug, p.Slug, before.Status, p.Status)
		return rev, true, nil
	})
	if err != nil {
		return nil, err
	}

	if !batch.Empty() {
		s.cache.Invalidate(ctx, batch)
	}

	s.log.Info().
		Str("post_id", id.String()).
		Str("status", string(post.Status)).
		Int64("version", post.Version).
		Msg(event)

	return post, nil
}

func validateContent(title, body string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required: %w", domain.ErrValidation)
	}
	return validateLengths(title, body)
}

func validateLengths(title, body string) error {
	if len(title) > domain.MaxTitleLen {
		return fmt.Errorf("title exceeds %d characters: %w", domain.MaxTitleLen, domain.ErrValidation)
	}
	if len(body) > domain.MaxBodyLen {
		return fmt.Errorf("body exceeds %d characters: %w", domain.MaxBodyLen, domain.ErrValidation)
	}
	return nil
}

func isSlugConflict(err error) bool {
	return errors.Is(err, domain.ErrSlugConflict)
}
