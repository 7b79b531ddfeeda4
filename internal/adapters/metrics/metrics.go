// Package metrics exposes Prometheus collectors for evaluations and the
// HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baditaflorin/go_diffusion_coefficient/internal/core/domain"
)

// Metrics holds all Prometheus collectors for the calculator.
type Metrics struct {
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	sweepPoints        prometheus.Histogram

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics instance on its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diffusion_evaluations_total",
				Help: "Total number of D_AB evaluations by outcome",
			},
			[]string{"outcome"},
		),

		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "diffusion_evaluation_duration_seconds",
				Help:    "Time spent evaluating the correlation",
				Buckets: []float64{1e-7, 5e-7, 1e-6, 5e-6, 1e-5, 1e-4, 1e-3},
			},
		),

		sweepPoints: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "diffusion_sweep_points",
				Help:    "Number of grid points per composition sweep",
				Buckets: prometheus.ExponentialBuckets(2, 4, 8),
			},
		),

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diffusion_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "diffusion_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "diffusion_http_rate_limited_total",
				Help: "Requests rejected by the rate limiter",
			},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.evaluationsTotal,
		m.evaluationDuration,
		m.sweepPoints,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.rateLimited,
	)

	return m
}

// RecordEvaluation records the outcome and latency of one evaluation.
func (m *Metrics) RecordEvaluation(err error, duration time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = domain.KindOf(err).String()
	}
	m.evaluationsTotal.WithLabelValues(outcome).Inc()
	m.evaluationDuration.Observe(duration.Seconds())
}

// RecordSweep records the size of a sweep.
func (m *Metrics) RecordSweep(points int) {
	m.sweepPoints.Observe(float64(points))
}

// RecordHTTPRequest records a served request.
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRateLimited counts a request rejected by the limiter.
func (m *Metrics) RecordRateLimited() {
	m.rateLimited.Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
