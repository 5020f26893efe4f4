// Package metrics provides Prometheus metrics for the exploration service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	AsksTotal        *prometheus.CounterVec
	GenerationsTotal *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	DirectoryErrors  prometheus.Counter
	ActiveSessions   prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		AsksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ktai_asks_total",
				Help: "Total exploration asks by outcome.",
			},
			[]string{"status"},
		),
		GenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ktai_generations_total",
				Help: "Total document generations by format and outcome.",
			},
			[]string{"format", "status"},
		),
		UpstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ktai_upstream_request_duration_seconds",
				Help:    "Outbound request duration by upstream service.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service"},
		),
		DirectoryErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ktai_directory_load_errors_total",
				Help: "Total failed repository directory loads.",
			},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ktai_active_sessions",
				Help: "Number of live exploration sessions.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(m.AsksTotal)
	reg.MustRegister(m.GenerationsTotal)
	reg.MustRegister(m.UpstreamDuration)
	reg.MustRegister(m.DirectoryErrors)
	reg.MustRegister(m.ActiveSessions)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordAsk increments the ask counter.
func (m *Metrics) RecordAsk(status string) {
	m.AsksTotal.WithLabelValues(status).Inc()
}

// RecordGeneration increments the generation counter.
func (m *Metrics) RecordGeneration(format, status string) {
	m.GenerationsTotal.WithLabelValues(format, status).Inc()
}

// ObserveUpstream records an outbound request duration.
func (m *Metrics) ObserveUpstream(service string, seconds float64) {
	m.UpstreamDuration.WithLabelValues(service).Observe(seconds)
}

// RecordDirectoryError increments the directory failure counter.
func (m *Metrics) RecordDirectoryError() {
	m.DirectoryErrors.Inc()
}

// SetActiveSessions sets the live session count.
func (m *Metrics) SetActiveSessions(count float64) {
	m.ActiveSessions.Set(count)
}
