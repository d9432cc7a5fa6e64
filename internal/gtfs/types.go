// Package gtfs loads static GTFS timetable data and builds the in-memory
// schedule index the rest of the application queries.
package gtfs

// Stop is one boarding location from stops.txt.
type Stop struct {
	ID       string
	Name     string
	Lat      float64
	Lon      float64
	HasPoint bool
}

// Route is one line from routes.txt. ShortName is the rider-facing
// line number ("014", "102") used for filtering and display.
type Route struct {
	ID        string
	ShortName string
}

// Trip is one scheduled run of a route from trips.txt.
type Trip struct {
	ID          string
	RouteID     string
	Headsign    string
	DirectionID int8
	ServiceID   string
	ShapeID     string
}

// StopVisit is one row of stop_times.txt: a trip calling at a stop.
// Arrival and departure are seconds since service-day midnight and may
// exceed 24h for trips that run past midnight. The OK flags record
// whether the source field parsed; a visit with neither is unusable for
// timing but still marks the trip's path through the stop.
type StopVisit struct {
	TripID       string
	StopID       string
	Sequence     int
	ArrivalSec   int
	DepartureSec int
	ArrivalOK    bool
	DepartureOK  bool
}

// EffectiveDeparture returns the time a rider can board: the departure
// time when present, otherwise the arrival time.
func (v StopVisit) EffectiveDeparture() (int, bool) {
	if v.DepartureOK {
		return v.DepartureSec, true
	}
	if v.ArrivalOK {
		return v.ArrivalSec, true
	}
	return 0, false
}

// EffectiveArrival returns the time a rider alights: the arrival time
// when present, otherwise the departure time.
func (v StopVisit) EffectiveArrival() (int, bool) {
	if v.ArrivalOK {
		return v.ArrivalSec, true
	}
	if v.DepartureOK {
		return v.DepartureSec, true
	}
	return 0, false
}

// ServiceRule is one row of calendar.txt: a weekly pattern bounded by a
// date range. Weekdays is keyed by three-letter lowercase day names.
type ServiceRule struct {
	ServiceID string
	Weekdays  map[string]bool
	StartDate string
	EndDate   string
}

// Exception type values from calendar_dates.txt.
const (
	ExceptionAdded   = 1
	ExceptionRemoved = 2
)

// ServiceException is one row of calendar_dates.txt overriding the
// weekly pattern for a single date.
type ServiceException struct {
	ServiceID     string
	Date          string
	ExceptionType int
}

// ShapePoint is one vertex of a route geometry from shapes.txt.
type ShapePoint struct {
	Lat      float64
	Lon      float64
	Sequence int
}

// Dataset is the raw parsed feed before indexing. Slices preserve the
// source file order, which matters for calendar_dates where later rows
// override earlier ones.
type Dataset struct {
	Routes     []Route
	Trips      []Trip
	StopVisits []StopVisit
	Stops      []Stop
	Rules      []ServiceRule
	Exceptions []ServiceException
	Shapes     map[string][]ShapePoint
	Timezone   string
}
