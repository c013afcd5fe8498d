package observability

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"warrantboard/domain/events"
	"warrantboard/domain/fusion"
	"warrantboard/domain/item"
	pkgerrors "warrantboard/pkg/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Session metrics
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	ActiveSessions    prometheus.Gauge

	// Business metrics
	ItemsCreated *prometheus.CounterVec
	Events       *prometheus.CounterVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewCollector creates a collector on its own registry.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
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
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_operations_total",
				Help:      "Session operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "session_operation_duration_seconds",
				Help:      "Session operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Number of loaded player sessions",
			},
		),
		ItemsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_created_total",
				Help:      "Items created by source and rarity",
			},
			[]string{"source", "rarity"},
		),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "domain_events_total",
				Help:      "Domain events raised by type",
			},
			[]string{"type"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "board_cache_hits_total",
				Help:      "Total number of built board cache hits",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "board_cache_misses_total",
				Help:      "Total number of built board cache misses",
			},
		),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Operations,
		c.OperationDuration,
		c.ActiveSessions,
		c.ItemsCreated,
		c.Events,
		c.CacheHits,
		c.CacheMisses,
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Outcome labels an operation result: "ok", the AppError type, or the
// fusion rejection reason.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var fe *fusion.Error
	if errors.As(err, &fe) {
		return strings.ToLower(string(fe.Reason))
	}
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		return strings.ToLower(string(appErr.Type))
	}
	return "error"
}

// ObserveOperation records one session operation.
func (c *Collector) ObserveOperation(op string, err error, d time.Duration) {
	c.Operations.WithLabelValues(op, Outcome(err)).Inc()
	c.OperationDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ItemCreated counts a rolled or fused item.
func (c *Collector) ItemCreated(source string, rarity item.Rarity) {
	c.ItemsCreated.WithLabelValues(source, rarity.String()).Inc()
}

// BoardCacheLookup counts a built board cache lookup.
func (c *Collector) BoardCacheLookup(hit bool) {
	if hit {
		c.CacheHits.Inc()
		return
	}
	c.CacheMisses.Inc()
}

// SetActiveSessions reports the loaded session count.
func (c *Collector) SetActiveSessions(n int) {
	c.ActiveSessions.Set(float64(n))
}

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// CountEvent is an event bus handler counting raised events.
func (c *Collector) CountEvent(_ context.Context, event events.DomainEvent) error {
	c.Events.WithLabelValues(event.GetEventType()).Inc()
	return nil
}
