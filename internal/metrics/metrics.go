// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

// Package metrics exposes the Prometheus instrumentation of the discovery
// engine. Metrics are registered on the default registry via promauto and
// served by promhttp at /metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

var (
	// Signal store metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signal_store_query_duration_seconds",
			Help:    "Duration of signal store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_store_query_errors_total",
			Help: "Total number of signal store query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions",
		},
		[]string{"cache_type", "reason"}, // reason: "expired", "capacity", "deleted"
	)

	CacheLoadsShared = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_loads_shared_total",
			Help: "Total number of cache misses served by another caller's in-flight load",
		},
		[]string{"cache_type"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected", "excluded"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Engine metrics
	VotesCast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_votes_total",
			Help: "Total number of votes cast by resulting action",
		},
		[]string{"action"}, // "created", "retracted", "flipped"
	)

	DegradedResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_degraded_total",
			Help: "Total number of read responses served degraded because the signal store failed",
		},
		[]string{"operation"},
	)

	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_recommendations_total",
			Help: "Total number of computed recommendation lists by source",
		},
		[]string{"source"}, // "personalized", "popular"
	)

	ScoredCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_scored_candidates",
			Help:    "Number of candidates that passed the hard filter per ranking",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200, 500},
		},
		[]string{"operation"},
	)
)

const maxErrorLabelLen = 50

// RecordDBQuery records a signal store query. Error messages are truncated
// to keep label cardinality bounded.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > maxErrorLabelLen {
			errorType = errorType[:maxErrorLabelLen]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordBreakerResult classifies the outcome of a call made through a
// circuit breaker.
func RecordBreakerResult(name string, err error) {
	result := "success"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		result = "rejected"
	case err != nil:
		result = "failure"
	}
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordBreakerExcluded records a call the breaker did not count because
// the caller went away before the store answered.
func RecordBreakerExcluded(name string) {
	CircuitBreakerRequests.WithLabelValues(name, "excluded").Inc()
}

// RecordBreakerTransition records a state change and updates the state gauge.
func RecordBreakerTransition(name string, from, to gobreaker.State) {
	CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
