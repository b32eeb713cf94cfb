package server

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the collectors exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the board collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "noticeboard_api_requests_total",
			Help: "Aggregated feed requests by scope and outcome.",
		}, []string{"scope", "outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "noticeboard_api_request_duration_seconds",
			Help:    "Time spent building the aggregated feed.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(m.requests, m.duration)
	return m
}

func (m *Metrics) observe(scope, outcome string, seconds float64) {
	m.requests.WithLabelValues(scope, outcome).Inc()
	m.duration.Observe(seconds)
}
