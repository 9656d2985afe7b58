// Package metrics registers the Prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sectionvault_merges_total",
			Help: "Tree merges performed, by mode (load or save)",
		},
		[]string{"mode"},
	)

	MergeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sectionvault_merge_duration_seconds",
			Help:    "Duration of tree merges including fetches",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	IdentityCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sectionvault_identity_collisions_total",
			Help: "Identity keys that matched more than one item during a merge",
		},
	)

	TombstonesApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sectionvault_tombstones_applied_total",
			Help: "Items removed by an explicit deletion marker",
		},
		[]string{"kind"}, // "group", "section"
	)

	GroupsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sectionvault_groups_pruned_total",
			Help: "Built-in groups dropped because a merge left them without sections",
		},
	)

	ShapeIssues = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sectionvault_shape_issues_total",
			Help: "Malformed parts of stored trees replaced by empty values",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sectionvault_http_requests_total",
			Help: "HTTP requests by method and status code",
		},
		[]string{"method", "status"},
	)

	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sectionvault_imports_total",
			Help: "Remote group imports by result",
		},
		[]string{"result"}, // "ok", "error", "rejected"
	)
)

// MergeStats is the part of a merge report that metrics care about.
type MergeStats struct {
	Collisions  int
	Groups      int
	Sections    int
	Pruned      int
	ShapeIssues int
}

// RecordMerge records one merge of the given mode.
func RecordMerge(mode string, d time.Duration, s MergeStats) {
	MergesTotal.WithLabelValues(mode).Inc()
	MergeDuration.WithLabelValues(mode).Observe(d.Seconds())
	IdentityCollisions.Add(float64(s.Collisions))
	TombstonesApplied.WithLabelValues("group").Add(float64(s.Groups))
	TombstonesApplied.WithLabelValues("section").Add(float64(s.Sections))
	GroupsPruned.Add(float64(s.Pruned))
	ShapeIssues.Add(float64(s.ShapeIssues))
}

func RecordHTTPRequest(method string, status int) {
	HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func RecordImport(result string) {
	ImportsTotal.WithLabelValues(result).Inc()
}
