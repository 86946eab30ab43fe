// Package metrics provides Prometheus metrics for sshsearch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric names use the sshsearch_ prefix.
const (
	Namespace = "sshsearch"
)

var (
	// BuildInfo exposes version information as labels on a constant gauge.
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "build_info",
		Help:      "Build information for sshsearch.",
	}, []string{"version", "go_version"})

	// SourceReloadsTotal counts source reloads by outcome (loaded, missing, error).
	SourceReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "source_reloads_total",
		Help:      "Total number of source file reloads by outcome.",
	}, []string{"source", "result"})

	// SourceEventsTotal counts file change notifications per source.
	SourceEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "source_events_total",
		Help:      "Total number of file change events received per source.",
	}, []string{"source", "op"})

	// SourceHosts is the number of hosts currently loaded per source.
	SourceHosts = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "source_hosts",
		Help:      "Number of host entries currently loaded per source.",
	}, []string{"source"})

	// SourceExists is 1 when the source file existed at the last check.
	SourceExists = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "source_exists",
		Help:      "Whether the source file existed at the last check (1) or not (0).",
	}, []string{"source"})

	// QueriesTotal counts directory queries.
	QueriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "queries_total",
		Help:      "Total number of host directory queries.",
	})

	// QueryDuration observes query latency.
	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "query_duration_seconds",
		Help:      "Duration of host directory queries.",
		Buckets:   []float64{.00005, .0001, .0005, .001, .005, .01, .05, .1},
	})

	// QueryResults observes the number of records returned per query.
	QueryResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "query_results",
		Help:      "Number of records returned per query.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	// QueryInvalidTotal counts (host, term) pairs skipped as invalid, by reason.
	QueryInvalidTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "query_invalid_total",
		Help:      "Total number of host/term pairs skipped as invalid.",
	}, []string{"reason"})

	// LaunchesTotal counts launcher invocations by outcome.
	LaunchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "launches_total",
		Help:      "Total number of terminal launches by outcome.",
	}, []string{"result"})

	// ActivationsRejectedTotal counts HTTP activation requests refused before
	// reaching the launcher, by reason.
	ActivationsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "activations_rejected_total",
		Help:      "Total number of activation requests rejected by the HTTP API.",
	}, []string{"reason"})

	// WatcherFallbacks counts paths that fell back from notifications to polling.
	WatcherFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "watcher_poll_fallbacks_total",
		Help:      "Total number of watched paths that fell back to polling.",
	})

	// WatcherErrors counts errors reported by the filesystem watcher.
	WatcherErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "watcher_errors_total",
		Help:      "Total number of filesystem watcher errors.",
	}, []string{"fatal"})
)

// SetBuildInfo records the running version.
func SetBuildInfo(version, goVersion string) {
	BuildInfo.WithLabelValues(version, goVersion).Set(1)
}
