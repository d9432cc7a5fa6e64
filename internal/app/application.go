package app

import (
	"log/slog"

	"github.com/GTD-TFS/bus/internal/appconf"
	"github.com/GTD-TFS/bus/internal/clock"
	"github.com/GTD-TFS/bus/internal/gtfs"
	"github.com/GTD-TFS/bus/internal/metrics"
	"github.com/GTD-TFS/bus/internal/planner"
	"github.com/GTD-TFS/bus/internal/publish"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config      appconf.Config
	GtfsConfig  gtfs.Config
	Logger      *slog.Logger
	GtfsManager *gtfs.Manager
	Planner     *planner.Engine
	Publisher   *publish.NATSPublisher
	Clock       clock.Clock
	Metrics     *metrics.Metrics
}

// CurrentVehicles returns the active vehicle statuses for the moment
// of the call. It satisfies publish.VehicleSource.
func (app *Application) CurrentVehicles() []gtfs.VehicleStatus {
	idx, snap := app.GtfsManager.Now()
	active := idx.ActiveTripIDs(snap)
	return idx.ActiveVehicles(active, snap.Seconds)
}

// DestinationTargets returns the pinned destination stop IDs.
func (app *Application) DestinationTargets() []string {
	return append([]string(nil), app.GtfsConfig.DestinationStopIDs...)
}

// DestinationLabel resolves a pinned destination's display label,
// falling back to the stop name.
func (app *Application) DestinationLabel(stopID string) string {
	if label, ok := app.GtfsConfig.DestinationLabels[stopID]; ok && label != "" {
		return label
	}
	return app.GtfsManager.Index().StopName(stopID)
}
