package restapi

import (
	"net/http"
	"strconv"

	"github.com/GTD-TFS/bus/internal/gtfs"
	"github.com/GTD-TFS/bus/internal/models"
)

// StopView is the JSON shape of one stop.
type StopView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Lat       float64 `json:"lat,omitempty"`
	Lon       float64 `json:"lon,omitempty"`
	DistanceM float64 `json:"distanceM,omitempty"`
}

// nearestStopsHandler answers GET /v1/stops/nearest?lat=&lon=&count=.
func (api *RestAPI) nearestStopsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	lat, latErr := strconv.ParseFloat(query.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(query.Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		api.sendError(w, r, http.StatusBadRequest, "lat and lon are required")
		return
	}

	count := 8
	if raw := query.Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 50 {
			api.sendError(w, r, http.StatusBadRequest, "count must be between 1 and 50")
			return
		}
		count = parsed
	}

	views := make([]StopView, 0, count)
	for _, near := range api.GtfsManager.StopsNear(lat, lon, count) {
		views = append(views, StopView{
			ID:        near.Stop.ID,
			Name:      near.Stop.Name,
			Lat:       near.Stop.Lat,
			Lon:       near.Stop.Lon,
			DistanceM: near.DistanceM,
		})
	}

	api.sendResponse(w, r, models.NewOKResponse(views, api.Clock))
}

// DepartureView is the JSON shape of one upcoming departure.
type DepartureView struct {
	TripID    string `json:"tripId"`
	Line      string `json:"line"`
	Headsign  string `json:"headsign,omitempty"`
	Departure string `json:"departure"`
	InMinutes int    `json:"inMinutes"`
}

// StopDeparturesData is the payload of the per-stop departures view.
type StopDeparturesData struct {
	StopID     string          `json:"stopId"`
	StopName   string          `json:"stopName"`
	Departures []DepartureView `json:"departures"`
}

// stopDeparturesHandler answers GET /v1/stops/{id}/departures.
func (api *RestAPI) stopDeparturesHandler(w http.ResponseWriter, r *http.Request) {
	stopID := r.PathValue("id")

	idx, snap := api.GtfsManager.Now()
	if _, ok := idx.StopsByID[stopID]; !ok {
		api.sendNotFound(w, r)
		return
	}

	window := int(api.GtfsConfig.UpcomingWindow.Seconds())
	if window <= 0 {
		window = 120 * 60
	}

	active := idx.ActiveTripIDs(snap)
	upcoming := idx.UpcomingForStop(stopID, active, snap.Seconds, window)

	views := make([]DepartureView, 0, len(upcoming))
	for _, departure := range upcoming {
		views = append(views, DepartureView{
			TripID:    departure.TripID,
			Line:      departure.Line,
			Headsign:  departure.Headsign,
			Departure: gtfs.FormatClock(departure.DepartureSec),
			InMinutes: departure.InMinutes,
		})
	}

	api.sendResponse(w, r, models.NewOKResponse(StopDeparturesData{
		StopID:     stopID,
		StopName:   idx.StopName(stopID),
		Departures: views,
	}, api.Clock))
}
