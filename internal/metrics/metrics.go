// Package metrics provides Prometheus metrics for the bus API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Itinerary search metrics
	PlannerSearchesTotal  *prometheus.CounterVec
	PlannerSearchDuration prometheus.Histogram
	PlannerCacheHits      prometheus.Counter
	PlannerCacheMisses    prometheus.Counter

	// Schedule index metrics
	IndexRebuildsTotal  prometheus.Counter
	IndexRebuildSeconds prometheus.Gauge
	ActiveTrips         prometheus.Gauge

	// Position publisher metrics
	NATSPublished      prometheus.Counter
	NATSPublishErrors  prometheus.Counter
	NATSConnected      prometheus.Gauge
	NATSPublishSeconds prometheus.Histogram
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bus_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	plannerSearchesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_planner_searches_total",
			Help: "Itinerary searches by pass (strict or fallback) and outcome",
		},
		[]string{"pass", "outcome"},
	)

	plannerSearchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bus_planner_search_duration_seconds",
		Help:    "Itinerary search latency distribution, cache misses only",
		Buckets: prometheus.DefBuckets,
	})

	plannerCacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bus_planner_cache_hits_total",
		Help: "Itinerary result cache hits",
	})

	plannerCacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bus_planner_cache_misses_total",
		Help: "Itinerary result cache misses",
	})

	indexRebuildsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bus_index_rebuilds_total",
		Help: "Number of schedule index rebuilds since startup",
	})

	indexRebuildSeconds := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bus_index_rebuild_seconds",
		Help: "Duration of the most recent schedule index rebuild",
	})

	activeTrips := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bus_active_trips",
		Help: "Trips active for today's service set at the last refresh",
	})

	natsPublished := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bus_nats_published_total",
		Help: "Vehicle position messages published to NATS",
	})

	natsPublishErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bus_nats_publish_errors_total",
		Help: "Failed NATS publish attempts",
	})

	natsConnected := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bus_nats_connected",
		Help: "Whether the NATS connection is currently established (0 or 1)",
	})

	natsPublishSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bus_nats_publish_duration_seconds",
		Help:    "NATS publish latency distribution",
		Buckets: prometheus.DefBuckets,
	})

	registry.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		plannerSearchesTotal,
		plannerSearchDuration,
		plannerCacheHits,
		plannerCacheMisses,
		indexRebuildsTotal,
		indexRebuildSeconds,
		activeTrips,
		natsPublished,
		natsPublishErrors,
		natsConnected,
		natsPublishSeconds,
	)

	return &Metrics{
		Registry:              registry,
		HTTPRequestsTotal:     httpRequestsTotal,
		HTTPRequestDuration:   httpRequestDuration,
		PlannerSearchesTotal:  plannerSearchesTotal,
		PlannerSearchDuration: plannerSearchDuration,
		PlannerCacheHits:      plannerCacheHits,
		PlannerCacheMisses:    plannerCacheMisses,
		IndexRebuildsTotal:    indexRebuildsTotal,
		IndexRebuildSeconds:   indexRebuildSeconds,
		ActiveTrips:           activeTrips,
		NATSPublished:         natsPublished,
		NATSPublishErrors:     natsPublishErrors,
		NATSConnected:         natsConnected,
		NATSPublishSeconds:    natsPublishSeconds,
	}
}

// NATSPublishedInc increments the published-message counter.
func (m *Metrics) NATSPublishedInc() {
	if m != nil {
		m.NATSPublished.Inc()
	}
}

// NATSPublishErrInc increments the publish-error counter.
func (m *Metrics) NATSPublishErrInc() {
	if m != nil {
		m.NATSPublishErrors.Inc()
	}
}

// NATSSetConnected records the current connection state.
func (m *Metrics) NATSSetConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.NATSConnected.Set(1)
	} else {
		m.NATSConnected.Set(0)
	}
}

// PublishObserve records the latency of one publish call.
func (m *Metrics) PublishObserve(d time.Duration) {
	if m != nil {
		m.NATSPublishSeconds.Observe(d.Seconds())
	}
}
