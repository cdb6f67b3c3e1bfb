package domain

import (
	"time"

	"github.com/google/uuid"
)

// PostStatus represents the lifecycle state of a post.
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusScheduled PostStatus = "scheduled"
	StatusPublished PostStatus = "published"
)

// validTransitions defines the allowed state machine transitions.
// Publishing is reachable from both draft and scheduled; unscheduling
// returns a scheduled post to draft.
var validTransitions = map[PostStatus][]PostStatus{
	StatusDraft:     {StatusScheduled, StatusPublished},
	StatusScheduled: {StatusScheduled, StatusPublished, StatusDraft},
}

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s PostStatus) CanTransitionTo(next PostStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

const (
	// MaxTitleLen and MaxBodyLen are enforced by the lifecycle engine on
	// create, update, and restore.
	MaxTitleLen = 256
	MaxBodyLen  = 1 << 20
)

// Post is the editorial unit owned by an author.
//
// Invariants maintained by the service and store layers:
//   - scheduled ⇔ ScheduledAt set and PublishedAt null
//   - published ⇒ PublishedAt set
//   - draft ⇒ both timestamps null
//   - Slug unique across all posts
//   - Version strictly increases across mutations
type Post struct {
	ID          uuid.UUID  `json:"id"`
	AuthorID    uuid.UUID  `json:"author_id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Status      PostStatus `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsPublished reports whether the post is publicly visible.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// ContentEquals reports whether the content-affecting fields of p and o are
// identical. Slug is deliberately excluded: a rename invalidates caches but
// does not produce a revision.
func (p *Post) ContentEquals(o *Post) bool {
	return p.Title == o.Title &&
		p.Body == o.Body &&
		p.Status == o.Status &&
		timePtrEqual(p.ScheduledAt, o.ScheduledAt) &&
		timePtrEqual(p.PublishedAt, o.PublishedAt)
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
