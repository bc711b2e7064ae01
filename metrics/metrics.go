// Package metrics provides Prometheus metrics for the HTTP server and the
// interaction lookups behind it:
//   - http_request_total, http_request_duration_seconds, http_request_in_flight
//   - rate_limiter_buckets_total
//   - interaction_lookups_total: lookups by result kind and not-found reason
//   - external_requests_total, external_request_duration_seconds: collaborator calls
//   - name_list_size: entries in the master name list used for suggestions
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	InteractionLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interaction_lookups_total",
			Help: "Interaction lookups by result kind and not-found reason",
		},
		[]string{"kind", "reason"},
	)

	ExternalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_requests_total",
			Help: "Requests sent to external collaborators by outcome",
		},
		[]string{"collaborator", "outcome"},
	)

	ExternalRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "external_request_duration_seconds",
			Help:    "External collaborator latency including retries",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 4, 8, 16},
		},
		[]string{"collaborator"},
	)

	NameListSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "name_list_size",
			Help: "Number of names in the master name list",
		},
	)
)

// Outcomes recorded in external_requests_total
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(InteractionLookupsTotal)
	prometheus.MustRegister(ExternalRequestsTotal)
	prometheus.MustRegister(ExternalRequestDuration)
	prometheus.MustRegister(NameListSize)
}

// ObserveExternal records one collaborator call started at start
func ObserveExternal(collaborator string, start time.Time, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	ExternalRequestsTotal.WithLabelValues(collaborator, outcome).Inc()
	ExternalRequestDuration.WithLabelValues(collaborator).Observe(time.Since(start).Seconds())
}
