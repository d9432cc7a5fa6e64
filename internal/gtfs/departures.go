package gtfs

import "sort"

// Candidate is one boardable departure at a stop: the trip, where in
// the trip the stop sits, and the effective departure time after any
// next-day wrapping.
type Candidate struct {
	TripID       string
	StopID       string
	VisitIndex   int
	DepartureSec int
	// DayOffset is the seconds added by next-day wrapping; apply it to
	// the trip's raw times when computing downstream arrivals.
	DayOffset int
}

// Wrapped reports whether the candidate was lifted into a later day.
func (c Candidate) Wrapped() bool { return c.DayOffset > 0 }

// DepartureQuery bounds a candidate search at a single stop.
type DepartureQuery struct {
	// EarliestSec is the lower bound, seconds since service midnight.
	EarliestSec int
	// MaxSec is the inclusive upper bound after wrapping.
	MaxSec int
	// Limit caps the result count; zero means unlimited.
	Limit int
	// WrapToNextDay lifts departures earlier than EarliestSec by whole
	// days so tomorrow's first buses qualify in late-night searches.
	WrapToNextDay bool
	// StrictService keeps only trips in ActiveTrips.
	StrictService bool
	ActiveTrips   map[string]bool
	// ExcludeTrips drops specific trips, e.g. the first leg of a
	// transfer so the rider does not reboard the same vehicle.
	ExcludeTrips map[string]bool
	// FilteredOnly restricts to the line-filtered working set.
	FilteredOnly bool
}

// CandidateDepartures finds boardable departures from a stop, sorted
// by effective departure time. Visits at a trip's last stop never
// qualify because there is nowhere left to ride.
func (idx *ScheduleIndex) CandidateDepartures(stopID string, query DepartureQuery) []Candidate {
	var candidates []Candidate

	for _, occurrence := range idx.Occurrences[stopID] {
		visits := idx.VisitsByTrip[occurrence.TripID]
		if occurrence.VisitIndex >= len(visits)-1 {
			continue
		}
		if query.FilteredOnly && !idx.FilteredTrips[occurrence.TripID] {
			continue
		}
		if query.StrictService && !query.ActiveTrips[occurrence.TripID] {
			continue
		}
		if query.ExcludeTrips[occurrence.TripID] {
			continue
		}

		dep, ok := visits[occurrence.VisitIndex].EffectiveDeparture()
		if !ok {
			continue
		}

		offset := 0
		if query.WrapToNextDay {
			for dep+offset < query.EarliestSec {
				offset += SecondsPerDay
			}
		}
		dep += offset
		if dep < query.EarliestSec || dep > query.MaxSec {
			continue
		}

		candidates = append(candidates, Candidate{
			TripID:       occurrence.TripID,
			StopID:       stopID,
			VisitIndex:   occurrence.VisitIndex,
			DepartureSec: dep,
			DayOffset:    offset,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].DepartureSec != candidates[j].DepartureSec {
			return candidates[i].DepartureSec < candidates[j].DepartureSec
		}
		return candidates[i].TripID < candidates[j].TripID
	})

	if query.Limit > 0 && len(candidates) > query.Limit {
		candidates = candidates[:query.Limit]
	}
	return candidates
}
