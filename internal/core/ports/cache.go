package ports

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"

	"github.com/ashifa-1/cms-backend/internal/core/domain"
)

// PostCache is the cache-aside read store for the public surface. All
// implementations must be safe for concurrent use and must bound each call
// with their own short deadline; a cache fault degrades to a miss and never
// fails the caller.
type PostCache interface {
	GetPost(ctx context.Context, key string) (*domain.Post, bool)
	SetPost(ctx context.Context, key string, p *domain.Post)
	GetPage(ctx context.Context, key string) ([]*domain.Post, bool)
	SetPage(ctx context.Context, key string, posts []*domain.Post)
	// Invalidate deletes the batch's point keys and every key matching its
	// patterns. Failures are logged by the implementation, never returned.
	Invalidate(ctx context.Context, batch InvalidationBatch)
}

// InvalidationBatch is the set of cache deletions derived from one committed
// mutation (or one publisher sweep).
type InvalidationBatch struct {
	Keys     []string
	Patterns []string
}

// Merge folds other into b.
func (b *InvalidationBatch) Merge(other InvalidationBatch) {
	b.Keys = append(b.Keys, other.Keys...)
	for _, p := range other.Patterns {
		if !containsString(b.Patterns, p) {
			b.Patterns = append(b.Patterns, p)
		}
	}
}

// Empty reports whether the batch deletes nothing.
func (b InvalidationBatch) Empty() bool {
	return len(b.Keys) == 0 && len(b.Patterns) == 0
}

// Cache key grammar. The namespaces below are part of the coordinator
// contract; tests assert the exact shapes.
const (
	listPattern   = "posts:pub:list:*"
	searchPattern = "search:*"
)

// PostKey is the cache key for a single published post looked up by id.
func PostKey(id uuid.UUID) string {
	return fmt.Sprintf("post:pub:%s", id)
}

// SlugKey is the cache key for a single published post looked up by slug.
func SlugKey(slug string) string {
	return fmt.Sprintf("post:pub:slug:%s", slug)
}

// ListKey is the cache key for one page of the published listing.
func ListKey(skip, limit int) string {
	return fmt.Sprintf("posts:pub:list:%d:%d", skip, limit)
}

// SearchKey is the cache key for one page of a search result. The query is
// folded through FNV-64a so arbitrary input stays out of the keyspace.
func SearchKey(query string, skip, limit int) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(query))
	return fmt.Sprintf("search:%x:%d:%d", h.Sum64(), skip, limit)
}

// DeriveInvalidation computes the cache deletions owed after a committed
// mutation of one post. Point keys always cover the id and both slugs; the
// list and search namespaces are swept only when the mutation touched the
// published surface (the post was or became published).
func DeriveInvalidation(id uuid.UUID, oldSlug, newSlug string, oldStatus, newStatus domain.PostStatus) InvalidationBatch {
	batch := InvalidationBatch{
		Keys: []string{PostKey(id), SlugKey(oldSlug)},
	}
	if newSlug != "" && newSlug != oldSlug {
		batch.Keys = append(batch.Keys, SlugKey(newSlug))
	}
	if oldStatus == domain.StatusPublished || newStatus == domain.StatusPublished {
		batch.Patterns = append(batch.Patterns, listPattern, searchPattern)
	}
	return batch
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
