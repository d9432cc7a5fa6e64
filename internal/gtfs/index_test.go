package gtfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDataset builds a small two-line network:
//
//	line 014: Intercambiador -> Ávila -> La Laguna (weekday, plus a
//	          past-midnight run)
//	line 102: Ávila -> Puerto (weekday)
//	line 3:   Intercambiador -> La Laguna (saturday only)
func newTestDataset() *Dataset {
	weekdaySet := map[string]bool{
		"mon": true, "tue": true, "wed": true, "thu": true, "fri": true,
		"sat": false, "sun": false,
	}
	saturdaySet := map[string]bool{
		"mon": false, "tue": false, "wed": false, "thu": false, "fri": false,
		"sat": true, "sun": false,
	}

	return &Dataset{
		Routes: []Route{
			{ID: "R14", ShortName: "014"},
			{ID: "R102", ShortName: "102"},
			{ID: "R3", ShortName: "3"},
		},
		Trips: []Trip{
			{ID: "t14a", RouteID: "R14", Headsign: "La Laguna", ServiceID: "WK", ShapeID: "shp14"},
			{ID: "t14b", RouteID: "R14", Headsign: "La Laguna", ServiceID: "WK"},
			{ID: "t102a", RouteID: "R102", Headsign: "Puerto", ServiceID: "WK"},
			{ID: "t3a", RouteID: "R3", Headsign: "La Laguna", ServiceID: "SAT"},
		},
		StopVisits: []StopVisit{
			// Out of order on purpose; the index sorts by sequence.
			{TripID: "t14a", StopID: "B", Sequence: 3, ArrivalSec: 30300, ArrivalOK: true},
			{TripID: "t14a", StopID: "A", Sequence: 1, DepartureSec: 28800, DepartureOK: true},
			{TripID: "t14a", StopID: "T", Sequence: 2, ArrivalSec: 29400, DepartureSec: 29460, ArrivalOK: true, DepartureOK: true},

			{TripID: "t102a", StopID: "T", Sequence: 1, DepartureSec: 30000, DepartureOK: true},
			{TripID: "t102a", StopID: "C", Sequence: 2, ArrivalSec: 31200, ArrivalOK: true},

			{TripID: "t14b", StopID: "A", Sequence: 1, DepartureSec: 90600, DepartureOK: true},
			{TripID: "t14b", StopID: "B", Sequence: 2, ArrivalSec: 91800, ArrivalOK: true},

			{TripID: "t3a", StopID: "A", Sequence: 1, DepartureSec: 32400, DepartureOK: true},
			{TripID: "t3a", StopID: "B", Sequence: 2, ArrivalSec: 33600, ArrivalOK: true},
		},
		Stops: []Stop{
			{ID: "A", Name: "Intercambiador", Lat: 28.4636, Lon: -16.2518, HasPoint: true},
			{ID: "T", Name: "Ávila", Lat: 28.47, Lon: -16.30, HasPoint: true},
			{ID: "B", Name: "La Laguna", Lat: 28.485, Lon: -16.32, HasPoint: true},
			{ID: "C", Name: "Puerto", Lat: 28.5, Lon: -16.35, HasPoint: true},
		},
		Rules: []ServiceRule{
			{ServiceID: "WK", Weekdays: weekdaySet, StartDate: "20250101", EndDate: "20251231"},
			{ServiceID: "SAT", Weekdays: saturdaySet, StartDate: "20250101", EndDate: "20251231"},
		},
		Shapes: map[string][]ShapePoint{
			"shp14": {
				{Lat: 28.4636, Lon: -16.2518, Sequence: 1},
				{Lat: 28.485, Lon: -16.32, Sequence: 2},
			},
		},
		Timezone: "Atlantic/Canary",
	}
}

func mondaySnapshot(seconds int) Snapshot {
	return Snapshot{ServiceDate: "20250616", Weekday: "mon", Seconds: seconds}
}

func TestBuildIndexSortsVisitsBySequence(t *testing.T) {
	idx := BuildIndex(newTestDataset(), nil, nil, 1)

	visits := idx.VisitsByTrip["t14a"]
	require.Len(t, visits, 3)
	assert.Equal(t, "A", visits[0].StopID)
	assert.Equal(t, "T", visits[1].StopID)
	assert.Equal(t, "B", visits[2].StopID)
}

func TestBuildIndexOccurrences(t *testing.T) {
	idx := BuildIndex(newTestDataset(), nil, nil, 1)

	byTrip := make(map[string]int)
	for _, occ := range idx.Occurrences["A"] {
		byTrip[occ.TripID] = occ.VisitIndex
	}
	assert.Equal(t, map[string]int{"t14a": 0, "t14b": 0, "t3a": 0}, byTrip)
}

func TestBuildIndexLineFilter(t *testing.T) {
	idx := BuildIndex(newTestDataset(), []string{"014"}, nil, 1)

	assert.True(t, idx.InWorkingSet("t14a"))
	assert.True(t, idx.InWorkingSet("t14b"))
	assert.False(t, idx.InWorkingSet("t102a"))
	assert.False(t, idx.InWorkingSet("t3a"))

	// Unfiltered lookups still see everything.
	assert.Contains(t, idx.TripsByID, "t102a")
}

func TestBuildIndexEmptyFilterKeepsEverything(t *testing.T) {
	idx := BuildIndex(newTestDataset(), nil, nil, 1)

	assert.Len(t, idx.FilteredTrips, 4)
}

func TestOriginStopsSpanishOrdering(t *testing.T) {
	idx := BuildIndex(newTestDataset(), nil, nil, 1)

	names := make([]string, 0, len(idx.OriginStops))
	for _, stop := range idx.OriginStops {
		names = append(names, stop.Name)
	}
	// Ávila collates under A, before Intercambiador.
	assert.Equal(t, []string{"Ávila", "Intercambiador", "La Laguna", "Puerto"}, names)
}

func TestOriginStopsExcludeDestinations(t *testing.T) {
	idx := BuildIndex(newTestDataset(), nil, []string{"B", "C"}, 1)

	names := make([]string, 0, len(idx.OriginStops))
	for _, stop := range idx.OriginStops {
		names = append(names, stop.Name)
	}
	// La Laguna and Puerto are where riders go, not where they board.
	assert.Equal(t, []string{"Ávila", "Intercambiador"}, names)
}

func TestOriginStopsRespectFilter(t *testing.T) {
	idx := BuildIndex(newTestDataset(), []string{"102"}, nil, 1)

	names := make([]string, 0, len(idx.OriginStops))
	for _, stop := range idx.OriginStops {
		names = append(names, stop.Name)
	}
	assert.Equal(t, []string{"Ávila", "Puerto"}, names)
}

func TestLineOptionsNumericSort(t *testing.T) {
	idx := BuildIndex(newTestDataset(), nil, nil, 1)
	assert.Equal(t, []string{"3", "014", "102"}, idx.LineOptions)
}

func TestSortLineNamesMixed(t *testing.T) {
	lines := []string{"102", "L2", "3", "014", "L1"}
	SortLineNames(lines)
	assert.Equal(t, []string{"3", "014", "102", "L1", "L2"}, lines)
}

func TestLineResolution(t *testing.T) {
	idx := BuildIndex(newTestDataset(), nil, nil, 1)

	assert.Equal(t, "014", idx.Line("t14a"))
	assert.Equal(t, "", idx.Line("missing"))
}

func TestStopName(t *testing.T) {
	idx := BuildIndex(newTestDataset(), nil, nil, 1)

	assert.Equal(t, "Intercambiador", idx.StopName("A"))
	assert.Equal(t, "ZZZ", idx.StopName("ZZZ"))
}
