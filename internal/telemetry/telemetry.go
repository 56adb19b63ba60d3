// Package telemetry registers the engine's Prometheus collectors. Metrics are
// registered on the default registry and exposed by the gateway's /metrics
// endpoint.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Resolutions counts terminal per-source search outcomes.
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memedex_resolutions_total",
		Help: "Source search results by source and outcome kind.",
	}, []string{"source", "outcome"})

	// Fallbacks counts single-hop switches from the preferred source to the
	// other one.
	Fallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memedex_fallbacks_total",
		Help: "Orchestrator fallbacks from the preferred source.",
	}, []string{"from", "to"})

	// FetchAttempts counts individual HTTP attempts by outcome.
	FetchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memedex_fetch_attempts_total",
		Help: "Page fetch attempts by outcome (ok, http_status, timeout, network).",
	}, []string{"outcome"})

	// ResolutionDuration observes end-to-end Resolve latency.
	ResolutionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "memedex_resolution_seconds",
		Help:    "End-to-end resolution latency in seconds.",
		Buckets: prometheus.DefBuckets,
	})
)
