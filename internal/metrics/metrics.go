// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Request metrics
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_requests_total",
			Help: "Total number of notify requests by response status",
		},
		[]string{"status"},
	)

	// Verification metrics; result is "verified" or a rejection reason
	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_verifications_total",
			Help: "Total number of launch-data verifications by result",
		},
		[]string{"result"},
	)

	// Relay metrics
	RelayAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_relay_attempts_total",
			Help: "Total number of outbound sendMessage attempts",
		},
		[]string{"destination", "outcome"},
	)

	RelayDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notify_relay_duration_seconds",
			Help:    "Duration of outbound sendMessage calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Outcome converts a relay success flag into the metric label value.
func Outcome(succeeded bool) string {
	if succeeded {
		return "success"
	}
	return "failure"
}
