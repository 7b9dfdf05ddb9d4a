package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics of the API. Every collector owns its
// registry, so tests can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	ItemOperations *prometheus.CounterVec
	AuthzDecisions *prometheus.CounterVec
	ItemLookups    *prometheus.CounterVec

	DBOperations *prometheus.CounterVec
	DBDuration   *prometheus.HistogramVec
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ItemOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "item_operations_total",
				Help:      "Item create, update and delete operations",
			},
			[]string{"operation", "status"},
		),
		AuthzDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "authz_decisions_total",
				Help:      "Item authorization decisions by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		ItemLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "item_lookups_total",
				Help:      "Item lookups by the strategy that found the item",
			},
			[]string{"strategy"},
		),
		DBOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_operations_total",
				Help:      "Total number of database operations",
			},
			[]string{"operation", "status"},
		),
		DBDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_operation_duration_seconds",
				Help:      "Database operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.ItemOperations,
		c.AuthzDecisions,
		c.ItemLookups,
		c.DBOperations,
		c.DBDuration,
		collectors.NewGoCollector(),
	)

	return c
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, route, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordAuthzDecision counts an allow/deny/not_found outcome
func (c *Collector) RecordAuthzDecision(operation, outcome string) {
	if c == nil {
		return
	}
	c.AuthzDecisions.WithLabelValues(operation, outcome).Inc()
}

// RecordLookup counts which lookup strategy resolved an item
func (c *Collector) RecordLookup(strategy string) {
	if c == nil {
		return
	}
	c.ItemLookups.WithLabelValues(strategy).Inc()
}

// RecordItemOperation counts a write operation on items
func (c *Collector) RecordItemOperation(operation string, err error) {
	if c == nil {
		return
	}
	c.ItemOperations.WithLabelValues(operation, statusLabel(err)).Inc()
}

// RecordDBOperation records a store call
func (c *Collector) RecordDBOperation(operation string, d time.Duration, err error) {
	if c == nil {
		return
	}
	c.DBOperations.WithLabelValues(operation, statusLabel(err)).Inc()
	c.DBDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// Registry returns the Prometheus registry for this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
