// Package metrics holds the Prometheus collectors exported on /metrics.
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	queries       *prometheus.CounterVec
	queryLatency  prometheus.Histogram
	sessionWrites prometheus.Counter
	httpRequests  *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pneuma_queries_total",
			Help: "Table discovery queries by outcome.",
		}, []string{"status"}),
		queryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pneuma_query_duration_seconds",
			Help:    "Engine query latency.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		sessionWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pneuma_session_write_failures_total",
			Help: "Session history writes that failed and were dropped.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pneuma_http_requests_total",
			Help: "HTTP requests by route and status class.",
		}, []string{"method", "route", "code"}),
	}
	reg.MustRegister(
		m.queries,
		m.queryLatency,
		m.sessionWrites,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveQuery records one query outcome. Latency is only observed for
// successful queries.
func (m *Metrics) ObserveQuery(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(status).Inc()
	if status == "ok" {
		m.queryLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) SessionWriteFailed() {
	if m == nil {
		return
	}
	m.sessionWrites.Inc()
}

// SessionWriteFailures exposes the failure counter for assertions.
func (m *Metrics) SessionWriteFailures() prometheus.Counter {
	return m.sessionWrites
}

func (m *Metrics) ObserveRequest(method, route, code string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, code).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
