// Package metrics provides Prometheus metrics collection for the dashboard service.
// HTTP metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// Report pipeline metrics:
//   - report_refresh_total: Counter with result label (success, error, stale)
//   - report_refresh_duration_seconds: Histogram of full report loads
//   - report_stale_results_total: Counter of loads superseded by a newer generation
//   - report_cases: Gauge of completed cases in the current snapshot
//   - upstream_request_duration_seconds: Histogram with op and status labels
//
// All metrics are automatically registered with the Prometheus default registry
// during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

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
			Help: "Number of clients tracked by the rate limiter",
		},
	)

	ReportRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_refresh_total",
			Help: "Report loads by result",
		},
		[]string{"result"},
	)

	ReportRefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "report_refresh_duration_seconds",
			Help:    "Duration of a full report load including detail fetches",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	ReportStaleResults = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "report_stale_results_total",
			Help: "Report loads dropped because a newer generation was issued",
		},
	)

	ReportCases = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "report_cases",
			Help: "Completed cases in the current report snapshot",
		},
	)

	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Latency of calls to the cases API",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"op", "status"},
	)
)

// Refresh results.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultStale   = "stale"
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(ReportRefreshTotal)
	prometheus.MustRegister(ReportRefreshDuration)
	prometheus.MustRegister(ReportStaleResults)
	prometheus.MustRegister(ReportCases)
	prometheus.MustRegister(UpstreamRequestDuration)
}
