package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersAllMetrics(t *testing.T) {
	m := New()
	require.NotNil(t, m.Registry)

	m.HTTPRequestsTotal.WithLabelValues("GET", "/v1/plan", "200").Inc()
	m.PlannerSearchesTotal.WithLabelValues("strict", "found").Inc()
	m.PlannerCacheHits.Inc()
	m.PlannerCacheMisses.Inc()
	m.IndexRebuildsTotal.Inc()
	m.ActiveTrips.Set(17)

	families, err := m.Registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}

	assert.True(t, names["bus_http_requests_total"])
	assert.True(t, names["bus_planner_searches_total"])
	assert.True(t, names["bus_planner_cache_hits_total"])
	assert.True(t, names["bus_index_rebuilds_total"])
	assert.True(t, names["bus_active_trips"])
}

func TestCounterValues(t *testing.T) {
	m := New()

	m.PlannerCacheHits.Inc()
	m.PlannerCacheHits.Inc()
	m.PlannerCacheMisses.Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PlannerCacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlannerCacheMisses))
}

func TestNATSPublisherMetrics(t *testing.T) {
	m := New()

	m.NATSPublishedInc()
	m.NATSPublishErrInc()
	m.NATSSetConnected(true)
	m.PublishObserve(5 * time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NATSPublished))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NATSPublishErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NATSConnected))

	m.NATSSetConnected(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.NATSConnected))
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.NATSPublishedInc()
		m.NATSPublishErrInc()
		m.NATSSetConnected(true)
		m.PublishObserve(time.Millisecond)
	})
}
