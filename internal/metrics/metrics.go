// Package metrics provides Prometheus metrics for zoneweaver.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace is the metric name prefix for all zoneweaver metrics.
const Namespace = "zoneweaver"

var (
	// BuildInfo exposes the build version as a labeled gauge set to 1.
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "build_info",
		Help:      "Build information (value is always 1).",
	}, []string{"version", "go_version"})

	// APIRequestsTotal counts Zone.eu API requests by operation and result.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "api_requests_total",
		Help:      "Zone.eu API requests by operation and result.",
	}, []string{"operation", "result"})

	// APIRequestDuration observes Zone.eu API request latency per operation.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Zone.eu API request latency by operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	// ChallengesPresentedTotal counts Present operations by outcome.
	// Outcomes: created, updated, unchanged, error.
	ChallengesPresentedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "challenges_presented_total",
		Help:      "DNS-01 challenge present operations by outcome.",
	}, []string{"outcome"})

	// ChallengesCleanedTotal counts CleanUp operations by outcome.
	// Outcomes: deleted, skipped, error.
	ChallengesCleanedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "challenges_cleaned_total",
		Help:      "DNS-01 challenge cleanup operations by outcome.",
	}, []string{"outcome"})

	// ZoneResolutionsTotal counts zone resolutions by result.
	// Results: cache_hit, probed, miss.
	ZoneResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "zone_resolutions_total",
		Help:      "Zone discovery lookups by result.",
	}, []string{"result"})

	// ZoneProbesTotal counts individual zone existence probes.
	ZoneProbesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "zone_probes_total",
		Help:      "Individual zone existence probes issued against the API.",
	})

	// PropagationWaitDuration observes how long propagation checks took.
	PropagationWaitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "propagation_wait_duration_seconds",
		Help:      "Time spent waiting for challenge records to propagate.",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
	})

	// WebhookRequestsTotal counts webhook server requests by endpoint and status.
	WebhookRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "webhook_requests_total",
		Help:      "Webhook server requests by endpoint and HTTP status.",
	}, []string{"endpoint", "status"})
)

// SetBuildInfo records the build version labels.
func SetBuildInfo(version, goVersion string) {
	BuildInfo.WithLabelValues(version, goVersion).Set(1)
}
