// Package metrics defines and registers all custom Prometheus metrics for the
// operations platform API. It is the single source of truth for metric names,
// labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ops_platform"

// ── Authorization metrics ─────────────────────────────────────────────────────

// AuthzDecisionsTotal counts authorization gate decisions.
// Labels:
//   - action: the action evaluated (e.g. "write-task")
//   - outcome: "allowed", "denied" or "error"
var AuthzDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authz_decisions_total",
		Help:      "Total number of authorization decisions, labelled by action and outcome.",
	},
	[]string{"action", "outcome"},
)

// ── Slug resolution metrics ───────────────────────────────────────────────────

// SlugResolutionsTotal counts slug lookups by result.
// Labels:
//   - kind: "client" or "project"
//   - result: "current" (direct hit), "redirect" (historical slug), "miss"
var SlugResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "slug_resolutions_total",
		Help:      "Total number of slug resolutions, labelled by entity kind and result.",
	},
	[]string{"kind", "result"},
)

// ── Identity cache metrics ────────────────────────────────────────────────────

// IdentityCacheTotal counts identity cache lookups.
// Label:
//   - result: "hit" or "miss"
var IdentityCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_cache_total",
		Help:      "Total number of identity cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ── Upload metrics ────────────────────────────────────────────────────────────

// UploadsRejectedTotal counts uploads rejected because all slots were busy.
var UploadsRejectedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_rejected_total",
		Help:      "Total number of uploads rejected due to slot exhaustion.",
	},
)
