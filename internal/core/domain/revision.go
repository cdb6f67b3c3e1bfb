package domain

import (
	"time"

	"github.com/google/uuid"
)

// PostRevision is an immutable snapshot of a post's state as persisted before
// a content-affecting mutation. (PostID, Version) is unique; revisions are
// append-only and removed only when the parent post is deleted.
type PostRevision struct {
	ID          uuid.UUID  `json:"id"`
	PostID      uuid.UUID  `json:"post_id"`
	Version     int64      `json:"version"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Status      PostStatus `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	ActorID     uuid.UUID  `json:"actor_id"`
	CapturedAt  time.Time  `json:"captured_at"`
}

// SnapshotOf captures p's current persisted state as a revision attributed to
// actor. Called before the mutation is applied, inside the same transaction.
func SnapshotOf(p *Post, actor uuid.UUID, now time.Time) *PostRevision {
	return &PostRevision{
		ID:          uuid.New(),
		PostID:      p.ID,
		Version:     p.Version,
		Title:       p.Title,
		Body:        p.Body,
		Status:      p.Status,
		ScheduledAt: p.ScheduledAt,
		PublishedAt: p.PublishedAt,
		ActorID:     actor,
		CapturedAt:  now,
	}
}
