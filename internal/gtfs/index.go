package gtfs

import (
	"sort"
	"strconv"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Occurrence locates one visit inside a trip: the trip ID plus the
// position of the visit in the trip's ordered visit slice.
type Occurrence struct {
	TripID     string
	VisitIndex int
}

// ScheduleIndex is the immutable query structure built from a Dataset.
// It is rebuilt and swapped whole on reload or line-filter changes;
// readers never see a partially built index.
type ScheduleIndex struct {
	RoutesByID   map[string]Route
	TripsByID    map[string]Trip
	StopsByID    map[string]Stop
	VisitsByTrip map[string][]StopVisit
	Occurrences  map[string][]Occurrence
	ShapesByID   map[string][]ShapePoint

	Rules      []ServiceRule
	Exceptions []ServiceException

	// FilteredTrips is the working set selected by the line filter.
	// Empty filter means every trip qualifies.
	FilteredTrips map[string]bool

	// Lines is the active line filter, normalized and sorted.
	Lines []string

	// LineOptions lists every line short name in the feed,
	// numeric-aware sorted for display.
	LineOptions []string

	// OriginStops lists the stops served by the filtered working set,
	// minus the pinned destination stops, ordered by Spanish-locale
	// name with stop ID as tiebreaker.
	OriginStops []Stop

	Timezone string

	// Generation increments on every rebuild so downstream caches can
	// tell stale results from fresh ones.
	Generation uint64
}

// BuildIndex assembles the query structure from a parsed dataset.
// lines restricts the working set to those route short names; nil or
// empty keeps everything. destinations are the pinned target stops,
// which never qualify as boarding origins.
func BuildIndex(dataset *Dataset, lines, destinations []string, generation uint64) *ScheduleIndex {
	idx := &ScheduleIndex{
		RoutesByID:    make(map[string]Route, len(dataset.Routes)),
		TripsByID:     make(map[string]Trip, len(dataset.Trips)),
		StopsByID:     make(map[string]Stop, len(dataset.Stops)),
		VisitsByTrip:  make(map[string][]StopVisit, len(dataset.Trips)),
		Occurrences:   make(map[string][]Occurrence),
		ShapesByID:    dataset.Shapes,
		Rules:         dataset.Rules,
		Exceptions:    dataset.Exceptions,
		FilteredTrips: make(map[string]bool),
		Timezone:      dataset.Timezone,
		Generation:    generation,
	}
	if idx.ShapesByID == nil {
		idx.ShapesByID = map[string][]ShapePoint{}
	}

	for _, route := range dataset.Routes {
		idx.RoutesByID[route.ID] = route
	}
	for _, stop := range dataset.Stops {
		idx.StopsByID[stop.ID] = stop
	}
	for _, trip := range dataset.Trips {
		idx.TripsByID[trip.ID] = trip
	}

	for _, visit := range dataset.StopVisits {
		if _, ok := idx.TripsByID[visit.TripID]; !ok {
			continue
		}
		idx.VisitsByTrip[visit.TripID] = append(idx.VisitsByTrip[visit.TripID], visit)
	}
	for tripID, visits := range idx.VisitsByTrip {
		sort.SliceStable(visits, func(i, j int) bool {
			return visits[i].Sequence < visits[j].Sequence
		})
		idx.VisitsByTrip[tripID] = visits
	}

	for tripID, visits := range idx.VisitsByTrip {
		for i, visit := range visits {
			idx.Occurrences[visit.StopID] = append(idx.Occurrences[visit.StopID],
				Occurrence{TripID: tripID, VisitIndex: i})
		}
	}

	lineSet := make(map[string]bool, len(lines))
	for _, line := range lines {
		if line != "" {
			lineSet[line] = true
		}
	}

	filteredRoutes := make(map[string]bool, len(idx.RoutesByID))
	for id, route := range idx.RoutesByID {
		if len(lineSet) == 0 || lineSet[route.ShortName] {
			filteredRoutes[id] = true
		}
	}
	for id, trip := range idx.TripsByID {
		if filteredRoutes[trip.RouteID] {
			idx.FilteredTrips[id] = true
		}
	}

	idx.Lines = make([]string, 0, len(lineSet))
	for line := range lineSet {
		idx.Lines = append(idx.Lines, line)
	}
	sort.Strings(idx.Lines)

	seen := make(map[string]bool, len(idx.RoutesByID))
	for _, route := range idx.RoutesByID {
		if route.ShortName != "" && !seen[route.ShortName] {
			seen[route.ShortName] = true
			idx.LineOptions = append(idx.LineOptions, route.ShortName)
		}
	}
	SortLineNames(idx.LineOptions)

	destinationSet := make(map[string]bool, len(destinations))
	for _, stopID := range destinations {
		destinationSet[stopID] = true
	}
	idx.OriginStops = collectOriginStops(idx, destinationSet)

	return idx
}

// Line returns the rider-facing line name for a trip, falling back to
// the route ID when the route carries no short name.
func (idx *ScheduleIndex) Line(tripID string) string {
	trip, ok := idx.TripsByID[tripID]
	if !ok {
		return ""
	}
	route, ok := idx.RoutesByID[trip.RouteID]
	if !ok || route.ShortName == "" {
		return trip.RouteID
	}
	return route.ShortName
}

// StopName resolves a stop ID to its display name, returning the ID
// itself for unknown stops.
func (idx *ScheduleIndex) StopName(stopID string) string {
	if stop, ok := idx.StopsByID[stopID]; ok && stop.Name != "" {
		return stop.Name
	}
	return stopID
}

// InWorkingSet reports whether a trip passes the active line filter.
func (idx *ScheduleIndex) InWorkingSet(tripID string) bool {
	return idx.FilteredTrips[tripID]
}

// collectOriginStops gathers every stop the filtered working set calls
// at, minus the pinned destinations, sorted for rider-facing origin
// pickers.
func collectOriginStops(idx *ScheduleIndex, destinationSet map[string]bool) []Stop {
	seen := make(map[string]bool)
	var stops []Stop
	for tripID := range idx.FilteredTrips {
		for _, visit := range idx.VisitsByTrip[tripID] {
			if seen[visit.StopID] || destinationSet[visit.StopID] {
				continue
			}
			seen[visit.StopID] = true
			if stop, ok := idx.StopsByID[visit.StopID]; ok {
				stops = append(stops, stop)
			}
		}
	}

	collator := collate.New(language.Spanish)
	sort.SliceStable(stops, func(i, j int) bool {
		if c := collator.CompareString(stops[i].Name, stops[j].Name); c != 0 {
			return c < 0
		}
		return stops[i].ID < stops[j].ID
	})
	return stops
}

// SortLineNames orders line short names numerically where both parse
// as numbers ("3" before "014" before "102") and lexically otherwise.
func SortLineNames(lines []string) {
	sort.SliceStable(lines, func(i, j int) bool {
		a, aErr := strconv.Atoi(lines[i])
		b, bErr := strconv.Atoi(lines[j])
		if aErr == nil && bErr == nil {
			if a != b {
				return a < b
			}
			return lines[i] < lines[j]
		}
		if aErr == nil {
			return true
		}
		if bErr == nil {
			return false
		}
		return lines[i] < lines[j]
	})
}
