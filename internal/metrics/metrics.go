// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_requests_total",
			Help: "Total number of translation requests by statement class and outcome.",
		},
		[]string{"class", "outcome"},
	)
	generationLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_generation_latency_ms",
			Help:    "Generation backend round-trip latency in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2000, 4000, 8000, 15000, 30000},
		},
	)
	executionLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_execution_latency_ms",
			Help:    "Statement execution latency in milliseconds by class.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
		[]string{"class"},
	)
	failuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_failures_total",
			Help: "Total number of failed translation requests by error kind.",
		},
		[]string{"kind"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		requestsTotal,
		generationLatencyMs,
		executionLatencyMs,
		failuresTotal,
		httpRequestsTotal,
		httpRequestDurationSeconds,
	)
}

// ObserveRequest counts one finished translation request.
func ObserveRequest(class, outcome string) {
	requestsTotal.WithLabelValues(class, outcome).Inc()
}

// ObserveGeneration records one generation backend call.
func ObserveGeneration(elapsed time.Duration) {
	generationLatencyMs.Observe(float64(elapsed.Milliseconds()))
}

// ObserveExecution records one statement run.
func ObserveExecution(class string, elapsed time.Duration) {
	executionLatencyMs.WithLabelValues(class).Observe(float64(elapsed.Milliseconds()))
}

// IncrementFailure counts one failed request of the given kind.
func IncrementFailure(kind string) {
	failuresTotal.WithLabelValues(kind).Inc()
}

// ObserveHTTP records one served HTTP request.
func ObserveHTTP(method, route string, status string, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}
