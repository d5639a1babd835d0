package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics encapsulates Prometheus instrumentation for the client core.
// All methods are nil-safe so components can run without instrumentation.
type Metrics struct {
	registry        *prometheus.Registry
	cacheLookups    *prometheus.CounterVec
	refreshInFlight *prometheus.GaugeVec
	requestDuration *prometheus.HistogramVec
}

// New registers the core collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "client_cache_lookups_total",
		Help: "Cache lookups partitioned by collection and outcome",
	}, []string{"collection", "outcome"})

	refreshInFlight := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "client_refresh_in_flight",
		Help: "Number of in-flight collection fetches",
	}, []string{"collection"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "client_request_duration_seconds",
		Help:    "Duration of gateway requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	registry.MustRegister(cacheLookups, refreshInFlight, requestDuration)

	return &Metrics{
		registry:        registry,
		cacheLookups:    cacheLookups,
		refreshInFlight: refreshInFlight,
		requestDuration: requestDuration,
	}
}

// Registry exposes the private registry for scraping or push setups.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordCacheLookup counts a hit or miss for the given collection.
func (m *Metrics) RecordCacheLookup(collection string, hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookups.WithLabelValues(collection, outcome).Inc()
}

// RefreshStarted marks a fetch as in flight for the collection.
func (m *Metrics) RefreshStarted(collection string) {
	if m == nil {
		return
	}
	m.refreshInFlight.WithLabelValues(collection).Inc()
}

// RefreshFinished marks an in-flight fetch as resolved.
func (m *Metrics) RefreshFinished(collection string) {
	if m == nil {
		return
	}
	m.refreshInFlight.WithLabelValues(collection).Dec()
}

// ObserveRequest records the duration of a gateway operation.
func (m *Metrics) ObserveRequest(operation string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(operation, strconv.Itoa(status)).Observe(duration.Seconds())
}
