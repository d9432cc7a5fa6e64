package restapi

import (
	"net/http"

	"github.com/GTD-TFS/bus/internal/gtfs"
	"github.com/GTD-TFS/bus/internal/models"
)

// VehicleView is the JSON shape of one active vehicle.
type VehicleView struct {
	TripID      string   `json:"tripId"`
	Line        string   `json:"line"`
	Headsign    string   `json:"headsign,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	ProgressPct float64  `json:"progressPct"`
	NextStopID  string   `json:"nextStopId,omitempty"`
	NextStopETA string   `json:"nextStopEta,omitempty"`
}

// vehiclesHandler answers GET /v1/vehicles with interpolated positions
// for every trip currently underway.
func (api *RestAPI) vehiclesHandler(w http.ResponseWriter, r *http.Request) {
	idx, snap := api.GtfsManager.Now()
	active := idx.ActiveTripIDs(snap)
	statuses := idx.ActiveVehicles(active, snap.Seconds)

	views := make([]VehicleView, 0, len(statuses))
	for _, status := range statuses {
		view := VehicleView{
			TripID:      status.TripID,
			Line:        status.Line,
			Headsign:    status.Headsign,
			ProgressPct: status.ProgressPct,
			NextStopID:  status.NextStopID,
		}
		if status.NextStopID != "" {
			view.NextStopETA = gtfs.FormatClock(status.NextStopETA)
		}
		if status.Position != nil {
			lat, lon := status.Position.Lat, status.Position.Lon
			view.Lat, view.Lon = &lat, &lon
		}
		views = append(views, view)
	}

	api.sendResponse(w, r, models.NewOKResponse(views, api.Clock))
}
