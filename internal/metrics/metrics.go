// Package metrics exposes Prometheus instrumentation for the registry's
// HTTP surface.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for engine operations served over HTTP.
type Metrics struct {
	registry *prometheus.Registry

	// RequestsTotal counts completed operations by logical operation name
	// and outcome code (an HTTP status or a registry error code name).
	RequestsTotal *prometheus.CounterVec

	// RequestDuration observes wall time per operation.
	RequestDuration *prometheus.HistogramVec
}

// New creates a metrics set with its own registry, pre-populated with the
// standard process and Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "filevault",
			Name:      "requests_total",
			Help:      "Completed registry operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "filevault",
			Name:      "request_duration_seconds",
			Help:      "Registry operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration)
	return m
}

// Handler returns the /metrics endpoint handler for this metrics set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
