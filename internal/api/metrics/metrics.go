// Package metrics defines all custom Prometheus metrics for the CMS backend.
// It is the single source of truth for metric names, labels, and help
// strings. Metrics register themselves with the default registry via
// promauto at package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cms"

// ── Cache metrics ─────────────────────────────────────────────────────────────

// CacheRequestsTotal counts cache lookups by result.
// Label:
//   - result: "hit" or "miss"
var CacheRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Total number of cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// CacheInvalidationsTotal counts cache keys deleted by invalidation batches.
var CacheInvalidationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_invalidations_total",
		Help:      "Total number of cache keys deleted by invalidation.",
	},
)

// ── Publisher metrics ─────────────────────────────────────────────────────────

// PostsPromotedTotal counts scheduled posts promoted to published by the
// sweeper.
var PostsPromotedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "posts_promoted_total",
		Help:      "Total number of scheduled posts promoted to published.",
	},
)

// SweepErrorsTotal counts per-post promotion failures. Failed posts are
// retried on the next sweep.
var SweepErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_errors_total",
		Help:      "Total number of per-post promotion failures during sweeps.",
	},
)

// SweepDuration measures how long one full publisher sweep takes.
var SweepDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sweep_duration_seconds",
		Help:      "Duration of one scheduled-publisher sweep.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Content metrics ───────────────────────────────────────────────────────────

// PostMutationsTotal counts successful lifecycle mutations.
// Label:
//   - operation: "create", "update", "schedule", "publish", "unschedule",
//     "delete", "restore"
var PostMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "post_mutations_total",
		Help:      "Total number of successful post lifecycle mutations.",
	},
	[]string{"operation"},
)
