package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the proxy.
type Metrics struct {
	ProxyRequests    *prometheus.CounterVec   // labels: route, outcome={success,bad_request,upstream_error}
	UpstreamDuration *prometheus.HistogramVec // labels: provider
	VersionRequests  prometheus.Counter
}

// NewMetrics creates and registers all proxy metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ProxyRequests,
		m.UpstreamDuration,
		m.VersionRequests,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ProxyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weathermap",
			Name:      "proxy_requests_total",
			Help:      "Proxy API requests by route and outcome.",
		}, []string{"route", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weathermap",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		VersionRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weathermap",
			Name:      "version_requests_total",
			Help:      "Requests served for the version marker.",
		}),
	}
}

// Outcome label values.
const (
	OutcomeSuccess       = "success"
	OutcomeBadRequest    = "bad_request"
	OutcomeUpstreamError = "upstream_error"
)
