package gtfs

import (
	"time"

	"github.com/GTD-TFS/bus/internal/appconf"
)

// DefaultTimezone applies when the feed's agency.txt does not declare one.
const DefaultTimezone = "Atlantic/Canary"

// Config holds GTFS configuration for the manager.
type Config struct {
	// Sources are tried in order until one loads. Entries are local
	// file paths or http(s) URLs to a GTFS zip archive.
	Sources []string

	// Optional auth header for remote sources.
	StaticAuthHeaderKey   string
	StaticAuthHeaderValue string

	// InitialLines restricts the working set to these route short
	// names. Empty means every line in the feed.
	InitialLines []string

	// DestinationStopIDs are the pinned target stops for the
	// destination planner, with optional display labels keyed by ID.
	DestinationStopIDs []string
	DestinationLabels  map[string]string

	// RefreshInterval is how often remote sources are re-fetched.
	// Zero disables periodic refresh.
	RefreshInterval time.Duration

	// UpcomingWindow bounds the per-stop upcoming departures view.
	UpcomingWindow time.Duration

	// SearchFilteredLinesOnly limits itinerary searches to the
	// filtered working set instead of every loaded trip.
	SearchFilteredLinesOnly bool

	Env     appconf.Environment
	Verbose bool
}

// withDefaults fills unset durations.
func (c Config) withDefaults() Config {
	if c.UpcomingWindow <= 0 {
		c.UpcomingWindow = 120 * time.Minute
	}
	return c
}
