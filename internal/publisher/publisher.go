// Package publisher runs the out-of-band sweeper that promotes due scheduled
// posts to published and invalidates the affected cache keys.
package publisher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ashifa-1/cms-backend/internal/api/metrics"
	"github.com/ashifa-1/cms-backend/internal/core/domain"
	"github.com/ashifa-1/cms-backend/internal/core/ports"
)

const (
	// perPostBudget bounds each promotion transaction; a post that cannot be
	// promoted within it is retried on the next sweep.
	perPostBudget = 5 * time.Second

	// sweepBatch caps how many due posts one sweep picks up.
	sweepBatch = 500
)

// Publisher wakes on a fixed interval and promotes every scheduled post whose
// due time has passed on the database clock. Sweeps are idempotent:
// re-running against the same state writes nothing.
type Publisher struct {
	repo     ports.PostRepository
	cache    ports.PostCache
	interval time.Duration
	log      zerolog.Logger
}

func New(repo ports.PostRepository, cache ports.PostCache, interval time.Duration, log zerolog.Logger) *Publisher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Publisher{repo: repo, cache: cache, interval: interval, log: log}
}

// Run loops until ctx is cancelled, executing one sweep per tick.
func (p *Publisher) Run(ctx context.Context) {
	p.log.Info().Dur("interval", p.interval).Msg("scheduled publisher started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("scheduled publisher stopped")
			return
		case <-ticker.C:
			p.Sweep(ctx)
		}
	}
}

// Sweep promotes every due scheduled post. A failure on one post is logged
// and does not abort the rest; the aggregated invalidation keys for all
// promoted posts go out as one batch after the loop.
func (p *Publisher) Sweep(ctx context.Context) {
	started := time.Now()
	defer func() {
		metrics.SweepDuration.Observe(time.Since(started).Seconds())
	}()

	due, err := p.repo.ListScheduledDue(ctx, sweepBatch)
	if err != nil {
		p.log.Error().Err(err).Msg("sweep: listing due posts failed")
		return
	}
	if len(due) == 0 {
		return
	}

	var batch ports.InvalidationBatch
	promoted := 0
	for _, post := range due {
		b, err := p.promote(ctx, post)
		if err != nil {
			metrics.SweepErrorsTotal.Inc()
			p.log.Error().Err(err).Str("post_id", post.ID.String()).Msg("sweep: promotion failed, will retry next sweep")
			continue
		}
		if b.Empty() {
			// Raced with a manual publish or unschedule; nothing written.
			continue
		}
		batch.Merge(b)
		promoted++
	}

	if !batch.Empty() {
		p.cache.Invalidate(ctx, batch)
	}
	if promoted > 0 {
		p.log.Info().Int("promoted", promoted).Int("due", len(due)).Msg("sweep complete")
	}
}

// promote transitions one post inside a single bounded transaction holding
// the row lock. The status is re-read under the lock: if the post is no
// longer scheduled the promotion is skipped, keeping sweeps idempotent under
// races with manual publish and unschedule.
func (p *Publisher) promote(ctx context.Context, post *domain.Post) (ports.InvalidationBatch, error) {
	ctx, cancel := context.WithTimeout(ctx, perPostBudget)
	defer cancel()

	var batch ports.InvalidationBatch
	_, err := p.repo.Mutate(ctx, post.ID, func(current *domain.Post) (*domain.PostRevision, bool, error) {
		if current.Status != domain.StatusScheduled {
			return nil, false, nil
		}

		now := time.Now().UTC()
		rev := domain.SnapshotOf(current, current.AuthorID, now)

		current.Status = domain.StatusPublished
		current.PublishedAt = &now
		current.ScheduledAt = nil

		batch = ports.DeriveInvalidation(current.ID, current.Slug, current.Slug, domain.StatusScheduled, domain.StatusPublished)
		return rev, true, nil
	})
	if err != nil {
		return ports.InvalidationBatch{}, err
	}

	if !batch.Empty() {
		metrics.PostsPromotedTotal.Inc()
		p.log.Info().Str("post_id", post.ID.String()).Str("slug", post.Slug).Msg("post promoted")
	}
	return batch, nil
}
