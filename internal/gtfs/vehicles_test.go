package gtfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimatePositionMidSegment(t *testing.T) {
	idx := BuildIndex(newTestDataset(), nil, nil, 1)

	// Halfway between A (dep 28800) and T (arr 29400).
	pos := idx.EstimatePosition("t14a", 29100)
	require.NotNil(t, pos)

	assert.Equal(t, "A", pos.PrevStopID)
	assert.Equal(t, "T", pos.NextStopID)
	assert.InDelta(t, 0.5, pos.Ratio, 1e-9)

	a := idx.StopsByID["A"]
	tr := idx.StopsByID["T"]
	assert.InDelta(t, (a.Lat+tr.Lat)/2, pos.Lat, 1e-9)
	assert.InDelta(t, (a.Lon+tr.Lon)/2, pos.Lon, 1e-9)
}

func TestEstimatePositionClampsToFirstStop(t *testing.T) {
	idx := BuildIndex(newTestDataset(), nil, nil, 1)

	// Before the trip starts the vehicle sits at the first stop.
	pos := idx.EstimatePosition("t14a", 28000)
	require.NotNil(t, pos)

	assert.Equal(t, "A", pos.PrevStopID)
	assert.Equal(t, "A", pos.NextStopID)
	assert.Equal(t, 0.0, pos.Ratio)

	a := idx.StopsByID["A"]
	assert.Equal(t, a.Lat, pos.Lat)
	assert.Equal(t, a.Lon, pos.Lon)
}

func TestEstimatePositionAfterTripEndsPinsToLastStop(t *testing.T) {
	idx := BuildIndex(newTestDataset(), nil, nil, 1)

	// Past the 30300 arrival at B the vehicle stays at B.
	pos := idx.EstimatePosition("t14a", 40000)
	require.NotNil(t, pos)

	assert.Equal(t, "B", pos.NextStopID)
	assert.Equal(t, 1.0, pos.Ratio)

	b := idx.StopsByID["B"]
	assert.Equal(t, b.Lat, pos.Lat)
	assert.Equal(t, b.Lon, pos.Lon)
}

func TestEstimatePositionHoldsDuringDwell(t *testing.T) {
	idx := BuildIndex(newTestDataset(), nil, nil, 1)

	// t14a dwells at T from 29400 to 29460; mid-dwell the vehicle has
	// not left the stop.
	pos := idx.EstimatePosition("t14a", 29430)
	require.NotNil(t, pos)

	assert.Equal(t, "T", pos.PrevStopID)
	assert.Equal(t, 0.0, pos.Ratio)

	tr := idx.StopsByID["T"]
	assert.Equal(t, tr.Lat, pos.Lat)
	assert.Equal(t, tr.Lon, pos.Lon)
}

func TestEstimatePositionUnknownTrip(t *testing.T) {
	idx := BuildIndex(newTestDataset(), nil, nil, 1)

	assert.Nil(t, idx.EstimatePosition("missing", 29100))
}

func TestActiveVehicles(t *testing.T) {
	idx := BuildIndex(newTestDataset(), nil, nil, 1)
	active := idx.ActiveTripIDs(mondaySnapshot(29100))

	statuses := idx.ActiveVehicles(active, 29100)
	require.Len(t, statuses, 1)

	status := statuses[0]
	assert.Equal(t, "t14a", status.TripID)
	assert.Equal(t, "014", status.Line)
	assert.Equal(t, "La Laguna", status.Headsign)
	assert.Equal(t, "T", status.NextStopID)
	assert.Equal(t, 29400, status.NextStopETA)
	assert.NotNil(t, status.Position)
	// 300s into a 1500s trip.
	assert.InDelta(t, 20.0, status.ProgressPct, 1e-9)
}

func TestActiveVehiclesRespectsServiceDay(t *testing.T) {
	idx := BuildIndex(newTestDataset(), nil, nil, 1)

	// Saturday: the weekday run is not in service even mid-span.
	active := idx.ActiveTripIDs(Snapshot{ServiceDate: "20250621", Weekday: "sat", Seconds: 29100})
	statuses := idx.ActiveVehicles(active, 29100)
	assert.Empty(t, statuses)
}

func TestUpcomingForStop(t *testing.T) {
	idx := BuildIndex(newTestDataset(), nil, nil, 1)
	active := idx.ActiveTripIDs(mondaySnapshot(28500))

	upcoming := idx.UpcomingForStop("A", active, 28500, 7200)
	require.Len(t, upcoming, 1)

	assert.Equal(t, "t14a", upcoming[0].TripID)
	assert.Equal(t, 28800, upcoming[0].DepartureSec)
	assert.Equal(t, 5, upcoming[0].InMinutes)
}

func TestUpcomingForStopWindowExcludesLater(t *testing.T) {
	idx := BuildIndex(newTestDataset(), nil, nil, 1)
	active := idx.ActiveTripIDs(mondaySnapshot(28500))

	// A 100-second window misses the 08:00 departure at 07:55.
	upcoming := idx.UpcomingForStop("A", active, 28500, 100)
	assert.Empty(t, upcoming)
}
