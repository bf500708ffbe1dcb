package sched

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cobblehill/lamplight/internal/engine"
)

// Metrics exposes run outcomes as Prometheus counters.
type Metrics struct {
	registry *prometheus.Registry

	runs    *prometheus.CounterVec
	items   *prometheus.CounterVec
	replies *prometheus.CounterVec
	skips   *prometheus.CounterVec
}

// NewMetrics creates a metrics sink with its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lamplight_runs_total",
			Help: "Engine invocations by outcome.",
		}, []string{"engine", "status"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lamplight_items_created_total",
			Help: "Items inserted by the engine.",
		}, []string{"engine"}),
		replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lamplight_replies_created_total",
			Help: "Replies inserted by the reply pass.",
		}, []string{"engine"}),
		skips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lamplight_moderation_skips_total",
			Help: "Candidates discarded by the moderation gate.",
		}, []string{"engine"}),
	}
	m.registry.MustRegister(m.runs, m.items, m.replies, m.skips)
	return m
}

// ObserveRun records a completed invocation.
func (m *Metrics) ObserveRun(name string, res engine.Result) {
	m.runs.WithLabelValues(name, res.AdmissionLevel).Inc()
	m.items.WithLabelValues(name).Add(float64(res.ItemsCreated))
	m.replies.WithLabelValues(name).Add(float64(res.RepliesCreated))
	m.skips.WithLabelValues(name).Add(float64(res.SkippedForModeration))
}

// ObserveFailure records a failed invocation.
func (m *Metrics) ObserveFailure(name string) {
	m.runs.WithLabelValues(name, "error").Inc()
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
