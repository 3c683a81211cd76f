// Package metrics tracks calls to upstream services.
//
// Metrics:
//   - feishu_proxy_upstream_requests_total: upstream calls by service, operation and outcome
//   - feishu_proxy_upstream_request_duration_seconds: upstream call duration histogram
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "feishu_proxy"

// Outcomes recorded for an upstream call
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// Collector owns the registry and the upstream metrics
type Collector struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates a collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Total number of calls made to upstream services",
			},
			[]string{"service", "operation", "outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Duration of upstream calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "operation"},
		),
	}
	c.registry.MustRegister(c.requestsTotal, c.requestDuration)
	return c
}

// RecordUpstream records one upstream call. A nil collector is a no-op.
func (c *Collector) RecordUpstream(service, operation, outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.requestsTotal.WithLabelValues(service, operation, outcome).Inc()
	c.requestDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// Handler returns the HTTP handler exposing the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
