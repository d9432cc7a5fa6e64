package gtfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopIndexNearestOrdering(t *testing.T) {
	idx := BuildIndex(newTestDataset(), nil, nil, 1)
	stopIndex := NewStopIndex(idx.OriginStops)

	require.Equal(t, 4, stopIndex.Len())

	// Query from just beside Intercambiador.
	results := stopIndex.Nearest(28.4640, -16.2520, 2)
	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].Stop.ID)
	assert.Equal(t, "T", results[1].Stop.ID)
	assert.Less(t, results[0].DistanceM, results[1].DistanceM)
}

func TestStopIndexNearestCountExceedsStops(t *testing.T) {
	idx := BuildIndex(newTestDataset(), nil, nil, 1)
	stopIndex := NewStopIndex(idx.OriginStops)

	results := stopIndex.Nearest(28.4640, -16.2520, 10)
	assert.Len(t, results, 4)
}

func TestStopIndexExcludesDestinationStops(t *testing.T) {
	idx := BuildIndex(newTestDataset(), nil, []string{"B", "C"}, 1)
	stopIndex := NewStopIndex(idx.OriginStops)

	// B and C are pinned destinations and never boarding candidates.
	results := stopIndex.Nearest(28.4640, -16.2520, 10)
	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].Stop.ID)
	assert.Equal(t, "T", results[1].Stop.ID)
}

func TestStopIndexSkipsStopsWithoutCoordinates(t *testing.T) {
	stops := []Stop{
		{ID: "A", Lat: 28.46, Lon: -16.25, HasPoint: true},
		{ID: "X"},
	}
	stopIndex := NewStopIndex(stops)
	assert.Equal(t, 1, stopIndex.Len())
}

func TestStopIndexEmpty(t *testing.T) {
	stopIndex := NewStopIndex(nil)
	assert.Nil(t, stopIndex.Nearest(28.46, -16.25, 3))
}
