// Package ops exposes the operational side surface of the bot: Prometheus
// metrics for interaction handling and a small HTTP server with health and
// metrics endpoints, run alongside the gateway session.
package ops

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	interactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discord_interactions_total",
			Help: "Total Discord interactions handled, by kind, identifier, and outcome.",
		},
		[]string{"kind", "name", "outcome"},
	)

	interactionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discord_interaction_duration_seconds",
			Help:    "Interaction handling latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind", "name"},
	)
)

func init() {
	prometheus.MustRegister(interactionsTotal, interactionDuration)
}

// ObserveInteraction records one handled interaction.
func ObserveInteraction(kind, name, outcome string, dur time.Duration) {
	interactionsTotal.WithLabelValues(kind, name, outcome).Inc()
	interactionDuration.WithLabelValues(kind, name).Observe(dur.Seconds())
}
