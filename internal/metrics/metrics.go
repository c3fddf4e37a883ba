// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

// Package metrics provides Prometheus instrumentation for Boxbox:
// API endpoint latency and throughput, upstream telemetry API calls,
// resolution pipeline outcomes, cache efficiency, and circuit breaker state.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxbox_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "boxbox_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "boxbox_api_active_requests",
			Help: "Number of API requests currently being processed",
		},
	)

	// Upstream telemetry API metrics
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "boxbox_upstream_request_duration_seconds",
			Help:    "Duration of upstream telemetry API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource"},
	)

	UpstreamRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxbox_upstream_request_errors_total",
			Help: "Total number of upstream telemetry API errors",
		},
		[]string{"resource", "error_type"},
	)

	// Resolution pipeline metrics
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxbox_resolutions_total",
			Help: "Total number of entity resolutions by kind and outcome",
		},
		[]string{"kind", "outcome"}, // kind: location, session, driver, insight
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxbox_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxbox_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	// Token exchange metrics
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxbox_token_refreshes_total",
			Help: "Total number of upstream bearer token refreshes",
		},
		[]string{"outcome"}, // success, failure
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "boxbox_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxbox_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxbox_circuit_breaker_requests_total",
			Help: "Total number of requests through the circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	// Chart pipeline metrics
	ChartUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boxbox_chart_uploads_total",
			Help: "Total number of chart image uploads",
		},
		[]string{"outcome"},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordUpstreamRequest records one upstream call with its outcome.
func RecordUpstreamRequest(resource string, duration time.Duration, err error) {
	UpstreamRequestDuration.WithLabelValues(resource).Observe(duration.Seconds())
	if err != nil {
		UpstreamRequestErrors.WithLabelValues(resource, "request").Inc()
	}
}

// RecordResolution records a resolution attempt for one entity kind.
func RecordResolution(kind string, ok bool) {
	outcome := "hit"
	if !ok {
		outcome = "miss"
	}
	ResolutionsTotal.WithLabelValues(kind, outcome).Inc()
}
