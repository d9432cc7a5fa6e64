package gtfs

import (
	"math"
	"sort"
)

// Position is an interpolated vehicle location between two stops of a
// trip. Ratio is 0 at the previous stop and 1 at the next.
type Position struct {
	Lat        float64
	Lon        float64
	PrevStopID string
	NextStopID string
	Ratio      float64
}

// VehicleStatus describes one trip currently underway.
type VehicleStatus struct {
	TripID      string
	Line        string
	Headsign    string
	Position    *Position
	ProgressPct float64
	NextStopID  string
	NextStopETA int // seconds since service midnight
}

// UpcomingDeparture is one future departure at a stop.
type UpcomingDeparture struct {
	TripID       string
	Line         string
	Headsign     string
	DepartureSec int
	InMinutes    int
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// EstimatePosition interpolates where along a trip the vehicle is at
// nowSec. It finds the first visit at or after now, then places the
// vehicle between the previous visit's departure and that visit's
// arrival. The ratio clamps to [0,1], so before the first timed stop
// the vehicle sits at that stop and past the last it stays pinned
// there. Returns nil when the trip has no timed visits or the
// bracketing stops lack usable coordinates.
func (idx *ScheduleIndex) EstimatePosition(tripID string, nowSec int) *Position {
	visits := idx.VisitsByTrip[tripID]

	next := -1
	for i, visit := range visits {
		t, ok := visit.EffectiveArrival()
		if !ok {
			continue
		}
		if t >= nowSec {
			next = i
			break
		}
	}
	if next == -1 {
		// Past every timed visit: the final stop is the bracket.
		for i := len(visits) - 1; i >= 0; i-- {
			if _, ok := visits[i].EffectiveArrival(); ok {
				next = i
				break
			}
		}
	}
	if next == -1 {
		return nil
	}

	prev := next
	for i := next - 1; i >= 0; i-- {
		if _, ok := visits[i].EffectiveArrival(); ok {
			prev = i
			break
		}
	}

	prevStop, prevOK := idx.StopsByID[visits[prev].StopID]
	nextStop, nextOK := idx.StopsByID[visits[next].StopID]
	if !prevOK || !nextOK || !prevStop.HasPoint || !nextStop.HasPoint {
		return nil
	}
	if !finite(prevStop.Lat) || !finite(prevStop.Lon) || !finite(nextStop.Lat) || !finite(nextStop.Lon) {
		return nil
	}

	// The segment runs from the previous stop's departure to the next
	// stop's arrival, so the vehicle stays put through a dwell.
	t0, _ := visits[prev].EffectiveDeparture()
	t1, _ := visits[next].EffectiveArrival()

	ratio := 0.0
	if t1 > t0 {
		ratio = float64(nowSec-t0) / float64(t1-t0)
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	return &Position{
		Lat:        prevStop.Lat + (nextStop.Lat-prevStop.Lat)*ratio,
		Lon:        prevStop.Lon + (nextStop.Lon-prevStop.Lon)*ratio,
		PrevStopID: prevStop.ID,
		NextStopID: nextStop.ID,
		Ratio:      ratio,
	}
}

// ActiveVehicles returns the working-set trips currently underway:
// trips whose span contains nowSec for today's active services. Each
// entry carries progress through the trip and the next stop's ETA.
func (idx *ScheduleIndex) ActiveVehicles(activeTrips map[string]bool, nowSec int) []VehicleStatus {
	var statuses []VehicleStatus

	for tripID := range idx.FilteredTrips {
		if !activeTrips[tripID] {
			continue
		}
		visits := idx.VisitsByTrip[tripID]
		if len(visits) < 2 {
			continue
		}

		start, startOK := visits[0].EffectiveDeparture()
		end, endOK := visits[len(visits)-1].EffectiveArrival()
		if !startOK || !endOK || nowSec < start || nowSec > end {
			continue
		}

		progress := 0.0
		if end > start {
			progress = float64(nowSec-start) / float64(end-start) * 100
		}

		trip := idx.TripsByID[tripID]
		status := VehicleStatus{
			TripID:      tripID,
			Line:        idx.Line(tripID),
			Headsign:    trip.Headsign,
			Position:    idx.EstimatePosition(tripID, nowSec),
			ProgressPct: progress,
		}

		for _, visit := range visits {
			t, ok := visit.EffectiveArrival()
			if ok && t >= nowSec {
				status.NextStopID = visit.StopID
				status.NextStopETA = t
				break
			}
		}

		statuses = append(statuses, status)
	}

	sort.SliceStable(statuses, func(i, j int) bool {
		return statuses[i].TripID < statuses[j].TripID
	})
	return statuses
}

// UpcomingForStop lists working-set departures from a stop inside
// [nowSec, nowSec+windowSec], soonest first.
func (idx *ScheduleIndex) UpcomingForStop(stopID string, activeTrips map[string]bool, nowSec, windowSec int) []UpcomingDeparture {
	var upcoming []UpcomingDeparture

	for _, occurrence := range idx.Occurrences[stopID] {
		if !idx.FilteredTrips[occurrence.TripID] || !activeTrips[occurrence.TripID] {
			continue
		}
		visits := idx.VisitsByTrip[occurrence.TripID]
		dep, ok := visits[occurrence.VisitIndex].EffectiveDeparture()
		if !ok || dep < nowSec || dep > nowSec+windowSec {
			continue
		}

		trip := idx.TripsByID[occurrence.TripID]
		upcoming = append(upcoming, UpcomingDeparture{
			TripID:       occurrence.TripID,
			Line:         idx.Line(occurrence.TripID),
			Headsign:     trip.Headsign,
			DepartureSec: dep,
			InMinutes:    (dep - nowSec) / 60,
		})
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		if upcoming[i].DepartureSec != upcoming[j].DepartureSec {
			return upcoming[i].DepartureSec < upcoming[j].DepartureSec
		}
		return upcoming[i].TripID < upcoming[j].TripID
	})
	return upcoming
}
