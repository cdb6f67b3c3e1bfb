package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ashifa-1/cms-backend/internal/core/domain"
	"github.com/ashifa-1/cms-backend/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubPostRepo struct {
	posts map[uuid.UUID]*domain.Post
	revs  map[uuid.UUID][]*domain.PostRevision

	findCalls   int
	searchCalls int
	listCalls   []ports.Page // pages passed to ListPublished
}

func newStubPostRepo() *stubPostRepo {
	return &stubPostRepo{
		posts: make(map[uuid.UUID]*domain.Post),
		revs:  make(map[uuid.UUID][]*domain.PostRevision),
	}
}

func (r *stubPostRepo) Create(_ context.Context, p *domain.Post) error {
	for _, existing := range r.posts {
		if existing.Slug == p.Slug {
			return domain.ErrSlugConflict
		}
	}
	clone := *p
	r.posts[p.ID] = &clone
	return nil
}

func (r *stubPostRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Post, error) {
	r.findCalls++
	p, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubPostRepo) FindBySlug(_ context.Context, slug string) (*domain.Post, error) {
	r.findCalls++
	for _, p := range r.posts {
		if p.Slug == slug {
			clone := *p
			return &clone, nil
		}
	}
	return nil, domain.ErrPostNotFound
}

// Mutate mirrors the real store: apply runs against the persisted state, the
// revision (if any) is appended and the version advances only when dirty.
func (r *stubPostRepo) Mutate(_ context.Context, id uuid.UUID, apply ports.ApplyFunc) (*domain.Post, error) {
	stored, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}

	work := *stored
	rev, dirty, err := apply(&work)
	if err != nil {
		return nil, err
	}
	if !dirty {
		clone := *stored
		return &clone, nil
	}

	if rev != nil {
		r.revs[id] = append(r.revs[id], rev)
	}

	work.Version++
	work.UpdatedAt = time.Now().UTC()
	r.posts[id] = &work

	clone := work
	return &clone, nil
}

func (r *stubPostRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.posts[id]; !ok {
		return domain.ErrPostNotFound
	}
	delete(r.posts, id)
	delete(r.revs, id)
	return nil
}

func (r *stubPostRepo) ListByAuthor(_ context.Context, authorID uuid.UUID, skip, limit int) ([]*domain.Post, error) {
	var out []*domain.Post
	for _, p := range r.posts {
		if p.AuthorID == authorID {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubPostRepo) ListPublished(_ context.Context, skip, limit int) ([]*domain.Post, error) {
	r.listCalls = append(r.listCalls, ports.Page{Skip: skip, Limit: limit})
	var out []*domain.Post
	for _, p := range r.posts {
		if p.IsPublished() {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubPostRepo) ListScheduledDue(_ context.Context, limit int) ([]*domain.Post, error) {
	return nil, nil
}

func (r *stubPostRepo) SearchPublished(_ context.Context, query string, skip, limit int) ([]*domain.Post, error) {
	r.searchCalls++
	var out []*domain.Post
	for _, p := range r.posts {
		if p.IsPublished() && strings.Contains(p.Title+" "+p.Body, query) {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubPostRepo) ListRevisions(_ context.Context, postID uuid.UUID) ([]*domain.PostRevision, error) {
	return r.revs[postID], nil
}

func (r *stubPostRepo) FindRevision(_ context.Context, postID, revisionID uuid.UUID) (*domain.PostRevision, error) {
	for _, rev := range r.revs[postID] {
		if rev.ID == revisionID {
			return rev, nil
		}
	}
	return nil, domain.ErrRevisionNotFound
}

// ---------------------------------------------------------------------------
// In-memory stub cache
// ---------------------------------------------------------------------------

type stubCache struct {
	posts   map[string]*domain.Post
	pages   map[string][]*domain.Post
	batches []ports.InvalidationBatch
}

func newStubCache() *stubCache {
	return &stubCache{
		posts: make(map[string]*domain.Post),
		pages: make(map[string][]*domain.Post),
	}
}

func (c *stubCache) GetPost(_ context.Context, key string) (*domain.Post, bool) {
	p, ok := c.posts[key]
	return p, ok
}

func (c *stubCache) SetPost(_ context.Context, key string, p *domain.Post) {
	c.posts[key] = p
}

func (c *stubCache) GetPage(_ context.Context, key string) ([]*domain.Post, bool) {
	page, ok := c.pages[key]
	return page, ok
}

func (c *stubCache) SetPage(_ context.Context, key string, posts []*domain.Post) {
	c.pages[key] = posts
}

// Invalidate records the batch and applies it so cache-consistency tests can
// observe the effect.
func (c *stubCache) Invalidate(_ context.Context, batch ports.InvalidationBatch) {
	c.batches = append(c.batches, batch)
	for _, key := range batch.Keys {
		delete(c.posts, key)
		delete(c.pages, key)
	}
	for _, pattern := range batch.Patterns {
		prefix := strings.TrimSuffix(pattern, "*")
		for key := range c.pages {
			if strings.HasPrefix(key, prefix) {
				delete(c.pages, key)
			}
		}
	}
}

func (c *stubCache) lastBatch(t *testing.T) ports.InvalidationBatch {
	t.Helper()
	if len(c.batches) == 0 {
		t.Fatalf("no invalidation batch submitted")
	}
	return c.batches[len(c.batches)-1]
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestService() (*PostService, *stubPostRepo, *stubCache) {
	repo := newStubPostRepo()
	cache := newStubCache()
	svc := NewPostService(repo, cache, Pagination{DefaultLimit: 20, MaxLimit: 100}, zerolog.Nop())
	return svc, repo, cache
}

func mustCreate(t *testing.T, svc *PostService, actor ports.Principal, title, body string) *domain.Post {
	t.Helper()
	post, err := svc.Create(context.Background(), actor, ports.CreatePostInput{Title: title, Body: body})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return post
}

func author() ports.Principal {
	return ports.Principal{UserID: uuid.New(), Role: domain.RoleAuthor}
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreate_DerivesSlugAndStartsAsDraft(t *testing.T) {
	svc, _, _ := newTestService()
	post := mustCreate(t, svc, author(), "Hello, World!", "Body")

	if post.Slug != "hello-world" {
		t.Errorf("slug: got %q, want %q", post.Slug, "hello-world")
	}
	if post.Status != domain.StatusDraft || post.Version != 1 {
		t.Errorf("new post: got status=%s version=%d", post.Status, post.Version)
	}
	if post.ScheduledAt != nil || post.PublishedAt != nil {
		t.Errorf("draft must have no timestamps")
	}
}

func TestCreate_AutoSuffixesOnCollision(t *testing.T) {
	svc, _, _ := newTestService()
	a := author()

	first := mustCreate(t, svc, a, "Foo", "x")
	second := mustCreate(t, svc, a, "Foo", "y")
	third := mustCreate(t, svc, a, "Foo", "z")

	if first.Slug != "foo" || second.Slug != "foo-2" || third.Slug != "foo-3" {
		t.Fatalf("slugs: got %q, %q, %q", first.Slug, second.Slug, third.Slug)
	}
}

func TestCreate_ExplicitSlugConflict(t *testing.T) {
	svc, _, _ := newTestService()
	a := author()
	mustCreate(t, svc, a, "Hello", "x")

	_, err := svc.Create(context.Background(), a, ports.CreatePostInput{Title: "Other", Body: "y", Slug: "hello"})
	if !errors.Is(err, domain.ErrSlugConflict) {
		t.Fatalf("got %v, want ErrSlugConflict", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	a := author()

	if _, err := svc.Create(context.Background(), a, ports.CreatePostInput{Title: "  "}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("blank title: got %v, want ErrValidation", err)
	}

	long := strings.Repeat("x", domain.MaxTitleLen+1)
	if _, err := svc.Create(context.Background(), a, ports.CreatePostInput{Title: long}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("over-length title: got %v, want ErrValidation", err)
	}
}

// ---------------------------------------------------------------------------
// Update and revisions
// ---------------------------------------------------------------------------

func TestUpdate_CapturesPriorStateAsRevision(t *testing.T) {
	svc, repo, _ := newTestService()
	a := author()
	post := mustCreate(t, svc, a, "Hello", "World")

	body := "Universe"
	updated, err := svc.Update(context.Background(), a, post.ID, ports.UpdatePostInput{Body: &body})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Version != 2 || updated.Body != "Universe" {
		t.Fatalf("updated: version=%d body=%q", updated.Version, updated.Body)
	}

	revs := repo.revs[post.ID]
	if len(revs) != 1 {
		t.Fatalf("revisions: got %d, want 1", len(revs))
	}
	if revs[0].Body != "World" || revs[0].Version != 1 {
		t.Fatalf("revision must snapshot prior state: %+v", revs[0])
	}
}

func TestUpdate_NoChangeIsNoOp(t *testing.T) {
	svc, repo, _ := newTestService()
	a := author()
	post := mustCreate(t, svc, a, "Hello", "World")

	same := "World"
	updated, err := svc.Update(context.Background(), a, post.ID, ports.UpdatePostInput{Body: &same})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != 1 {
		t.Fatalf("no-op must not bump version: got %d", updated.Version)
	}
	if len(repo.revs[post.ID]) != 0 {
		t.Fatalf("no-op must not record a revision")
	}
}

func TestUpdate_SlugOnlyBumpsVersionWithoutRevision(t *testing.T) {
	svc, repo, cache := newTestService()
	a := author()
	post := mustCreate(t, svc, a, "Hello", "World")

	slug := "hi"
	updated, err := svc.Update(context.Background(), a, post.ID, ports.UpdatePostInput{Slug: &slug})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Version != 2 || updated.Slug != "hi" {
		t.Fatalf("rename: version=%d slug=%q", updated.Version, updated.Slug)
	}
	if len(repo.revs[post.ID]) != 0 {
		t.Fatalf("slug rename is not content-affecting")
	}

	batch := cache.lastBatch(t)
	assertHasKey(t, batch.Keys, ports.SlugKey("hello"))
	assertHasKey(t, batch.Keys, ports.SlugKey("hi"))
}

func TestUpdate_Forbidden(t *testing.T) {
	svc, _, _ := newTestService()
	post := mustCreate(t, svc, author(), "Hello", "World")

	title := "Hijack"
	_, err := svc.Update(context.Background(), author(), post.ID, ports.UpdatePostInput{Title: &title})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("got %v, want ErrForbidden", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	title := "x"
	_, err := svc.Update(context.Background(), author(), uuid.New(), ports.UpdatePostInput{Title: &title})
	if !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("got %v, want ErrPostNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// Schedule / publish / unschedule
// ---------------------------------------------------------------------------

func TestSchedule_RejectsPastAndNearFuture(t *testing.T) {
	svc, _, _ := newTestService()
	a := author()
	post := mustCreate(t, svc, a, "Hello", "World")

	for _, when := range []time.Time{
		time.Now().Add(-time.Hour),
		time.Now(),
		time.Now().Add(500 * time.Millisecond),
	} {
		if _, err := svc.Schedule(context.Background(), a, post.ID, when); !errors.Is(err, domain.ErrInvalidSchedule) {
			t.Errorf("schedule at %v: got %v, want ErrInvalidSchedule", when, err)
		}
	}
}

func TestScheduleUnschedule_RoundTrip(t *testing.T) {
	svc, repo, _ := newTestService()
	a := author()
	post := mustCreate(t, svc, a, "Hello", "World")

	when := time.Now().Add(time.Hour)
	scheduled, err := svc.Schedule(context.Background(), a, post.ID, when)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if scheduled.Status != domain.StatusScheduled || scheduled.ScheduledAt == nil {
		t.Fatalf("scheduled: %+v", scheduled)
	}

	back, err := svc.Unschedule(context.Background(), a, post.ID)
	if err != nil {
		t.Fatalf("unschedule: %v", err)
	}
	if back.Status != domain.StatusDraft || back.ScheduledAt != nil {
		t.Fatalf("unscheduled: status=%s scheduled_at=%v", back.Status, back.ScheduledAt)
	}
	if back.Version != post.Version+2 {
		t.Fatalf("round trip must advance version by 2: got %d", back.Version)
	}
	if len(repo.revs[post.ID]) != 2 {
		t.Fatalf("round trip must record 2 revisions, got %d", len(repo.revs[post.ID]))
	}
}

func TestSchedule_ReplacesTimestamp(t *testing.T) {
	svc, _, _ := newTestService()
	a := author()
	post := mustCreate(t, svc, a, "Hello", "World")

	first := time.Now().Add(time.Hour).UTC()
	second := time.Now().Add(2 * time.Hour).UTC()

	if _, err := svc.Schedule(context.Background(), a, post.ID, first); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	rescheduled, err := svc.Schedule(context.Background(), a, post.ID, second)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if !rescheduled.ScheduledAt.Equal(second) {
		t.Fatalf("reschedule must replace the timestamp: got %v", rescheduled.ScheduledAt)
	}
}

func TestPublish_SetsPublishedAtAndSweepsLists(t *testing.T) {
	svc, _, cache := newTestService()
	a := author()
	post := mustCreate(t, svc, a, "Hello", "World")

	published, err := svc.Publish(context.Background(), a, post.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if published.Status != domain.StatusPublished || published.PublishedAt == nil {
		t.Fatalf("published: %+v", published)
	}
	if published.ScheduledAt != nil {
		t.Fatalf("publish must clear scheduled_at")
	}

	batch := cache.lastBatch(t)
	if len(batch.Patterns) == 0 {
		t.Fatalf("transition into published must sweep list/search namespaces")
	}
}

func TestPublish_AlreadyPublishedIsNoOp(t *testing.T) {
	svc, repo, _ := newTestService()
	a := author()
	post := mustCreate(t, svc, a, "Hello", "World")

	first, err := svc.Publish(context.Background(), a, post.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	again, err := svc.Publish(context.Background(), a, post.ID)
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}

	if again.Version != first.Version {
		t.Fatalf("idempotent publish must not bump version: %d -> %d", first.Version, again.Version)
	}
	if len(repo.revs[post.ID]) != 1 {
		t.Fatalf("idempotent publish must not record a revision: got %d", len(repo.revs[post.ID]))
	}
	if !again.PublishedAt.Equal(*first.PublishedAt) {
		t.Fatalf("published_at must be stable across no-op publishes")
	}
}

func TestUnschedule_RequiresScheduled(t *testing.T) {
	svc, _, _ := newTestService()
	a := author()
	post := mustCreate(t, svc, a, "Hello", "World")

	if _, err := svc.Unschedule(context.Background(), a, post.ID); !errors.Is(err, domain.ErrInvalidSchedule) {
		t.Fatalf("unschedule draft: got %v, want ErrInvalidSchedule", err)
	}
}

// ---------------------------------------------------------------------------
// Delete and restore
// ---------------------------------------------------------------------------

func TestDelete_RemovesPostAndInvalidates(t *testing.T) {
	svc, repo, cache := newTestService()
	a := author()
	post := mustCreate(t, svc, a, "Hello", "World")
	if _, err := svc.Publish(context.Background(), a, post.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if err := svc.Delete(context.Background(), a, post.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, ok := repo.posts[post.ID]; ok {
		t.Fatalf("post must be gone")
	}
	if len(repo.revs[post.ID]) != 0 {
		t.Fatalf("revisions must cascade")
	}

	batch := cache.lastBatch(t)
	assertHasKey(t, batch.Keys, ports.PostKey(post.ID))
	if len(batch.Patterns) == 0 {
		t.Fatalf("deleting a published post must sweep list/search namespaces")
	}
}

func TestDelete_Forbidden(t *testing.T) {
	svc, _, _ := newTestService()
	post := mustCreate(t, svc, author(), "Hello", "World")

	if err := svc.Delete(context.Background(), author(), post.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("got %v, want ErrForbidden", err)
	}
}

func TestRestore_AppliesSnapshotAsNewMutation(t *testing.T) {
	svc, repo, _ := newTestService()
	a := author()
	post := mustCreate(t, svc, a, "Hello", "World")

	body := "Universe"
	if _, err := svc.Update(context.Background(), a, post.ID, ports.UpdatePostInput{Body: &body}); err != nil {
		t.Fatalf("update: %v", err)
	}

	revs := repo.revs[post.ID]
	restored, err := svc.Restore(context.Background(), a, post.ID, revs[0].ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	if restored.Body != "World" {
		t.Fatalf("restore must re-apply the snapshot body: got %q", restored.Body)
	}
	if restored.Version != 3 {
		t.Fatalf("restore is a mutation: version got %d, want 3", restored.Version)
	}
	if len(repo.revs[post.ID]) != 2 {
		t.Fatalf("restore must capture the pre-restore state: got %d revisions", len(repo.revs[post.ID]))
	}
}

// ---------------------------------------------------------------------------
// Public reads and cache-aside behaviour
// ---------------------------------------------------------------------------

func TestGetPublic_DraftIsNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	post := mustCreate(t, svc, author(), "Hello", "World")

	if _, err := svc.GetPublic(context.Background(), post.Slug); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("draft via public surface: got %v, want ErrPostNotFound", err)
	}
}

func TestGetPublic_MissPopulatesThenHits(t *testing.T) {
	svc, repo, cache := newTestService()
	a := author()
	post := mustCreate(t, svc, a, "Hello", "World")
	if _, err := svc.Publish(context.Background(), a, post.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	repo.findCalls = 0
	if _, err := svc.GetPublic(context.Background(), "hello"); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if repo.findCalls != 1 {
		t.Fatalf("first read must hit the store: %d calls", repo.findCalls)
	}
	if _, ok := cache.posts[ports.SlugKey("hello")]; !ok {
		t.Fatalf("miss must populate the cache")
	}

	if _, err := svc.GetPublic(context.Background(), "hello"); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if repo.findCalls != 1 {
		t.Fatalf("second read must come from cache: %d store calls", repo.findCalls)
	}
}

func TestGetPublic_ById(t *testing.T) {
	svc, _, cache := newTestService()
	a := author()
	post := mustCreate(t, svc, a, "Hello", "World")
	if _, err := svc.Publish(context.Background(), a, post.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	got, err := svc.GetPublic(context.Background(), post.ID.String())
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.ID != post.ID {
		t.Fatalf("wrong post returned")
	}
	if _, ok := cache.posts[ports.PostKey(post.ID)]; !ok {
		t.Fatalf("id lookup must populate the id key")
	}
}

func TestGetPublic_StaleSlugGoneAfterRename(t *testing.T) {
	svc, _, _ := newTestService()
	a := author()
	post := mustCreate(t, svc, a, "Hello", "World")
	if _, err := svc.Publish(context.Background(), a, post.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	// Warm the slug key.
	if _, err := svc.GetPublic(context.Background(), "hello"); err != nil {
		t.Fatalf("warm read: %v", err)
	}

	slug := "hi"
	if _, err := svc.Update(context.Background(), a, post.ID, ports.UpdatePostInput{Slug: &slug}); err != nil {
		t.Fatalf("rename: %v", err)
	}

	if _, err := svc.GetPublic(context.Background(), "hello"); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("old slug after rename: got %v, want ErrPostNotFound", err)
	}
	if got, err := svc.GetPublic(context.Background(), "hi"); err != nil || got.ID != post.ID {
		t.Fatalf("new slug after rename: got %v, %v", got, err)
	}
}

func TestListPublished_ClampsPagination(t *testing.T) {
	svc, repo, _ := newTestService()

	cases := []struct {
		in   ports.Page
		want ports.Page
	}{
		{ports.Page{Skip: 0, Limit: 0}, ports.Page{Skip: 0, Limit: 20}},
		{ports.Page{Skip: -5, Limit: 1000}, ports.Page{Skip: 0, Limit: 100}},
		{ports.Page{Skip: 40, Limit: 10}, ports.Page{Skip: 40, Limit: 10}},
	}

	for i, tc := range cases {
		if _, err := svc.ListPublished(context.Background(), tc.in); err != nil {
			t.Fatalf("list: %v", err)
		}
		if got := repo.listCalls[i]; got != tc.want {
			t.Errorf("case %d: repo saw %+v, want %+v", i, got, tc.want)
		}
	}
}

func TestSearchPublished_EmptyQueryFailsValidation(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.SearchPublished(context.Background(), "   ", ports.Page{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestSearchPublished_CachesPages(t *testing.T) {
	svc, repo, _ := newTestService()
	a := author()
	post := mustCreate(t, svc, a, "Go tips", "concurrency")
	if _, err := svc.Publish(context.Background(), a, post.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if _, err := svc.SearchPublished(context.Background(), "tips", ports.Page{}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if _, err := svc.SearchPublished(context.Background(), "tips", ports.Page{}); err != nil {
		t.Fatalf("search again: %v", err)
	}
	if repo.searchCalls != 1 {
		t.Fatalf("second identical search must come from cache: %d store calls", repo.searchCalls)
	}
}

func assertHasKey(t *testing.T, keys []string, want string) {
	t.Helper()
	for _, k := range keys {
		if k == want {
			return
		}
	}
	t.Fatalf("%q not found in %v", want, keys)
}
