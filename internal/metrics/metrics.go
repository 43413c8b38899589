// Package metrics collects and exposes Prometheus metrics for the HTTP
// pipeline: request counts and latency, auth events, and rate-gate
// rejections. A Collector is created once at startup and handed to the
// app via dependency injection; no package-level registry is used.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and records all application metrics.
type Collector struct {
	requests     *prometheus.CounterVec
	latency      prometheus.Histogram
	authEvents   *prometheus.CounterVec
	rateRejected prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with the
// given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockmounts_http_requests_total",
			Help: "HTTP responses by method and status code.",
		}, []string{"method", "status"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockmounts_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockmounts_auth_events_total",
			Help: "Authentication events by kind (signup, login, login_failed, federation, deletion).",
		}, []string{"kind"}),
		rateRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockmounts_rate_gate_rejected_total",
			Help: "Requests rejected by the rate gate.",
		}),
	}

	reg.MustRegister(
		c.requests,
		c.latency,
		c.authEvents,
		c.rateRejected,
	)

	return c
}

// RecordRequest records one completed HTTP request.
func (c *Collector) RecordRequest(method string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.latency.Observe(duration.Seconds())
}

// RecordAuthEvent records an authentication event by kind.
func (c *Collector) RecordAuthEvent(kind string) {
	c.authEvents.WithLabelValues(kind).Inc()
}

// RecordRateRejection records one rate-gate rejection.
func (c *Collector) RecordRateRejection() {
	c.rateRejected.Inc()
}

// Handler returns the HTTP handler serving the /metrics endpoint for the
// given registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
