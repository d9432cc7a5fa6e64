package restapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/GTD-TFS/bus/internal/models"
)

// DestinationPlanData is the payload of the pinned-destinations plan.
type DestinationPlanData struct {
	Origin           string       `json:"origin,omitempty"`
	OriginName       string       `json:"originName,omitempty"`
	OriginDistanceM  float64      `json:"originDistanceM,omitempty"`
	DestinationLabel string       `json:"destinationLabel,omitempty"`
	Options          []OptionView `json:"options"`
}

// destinationsPlanHandler plans to the pinned destination stops. The
// origin is either an explicit stop (?origin=) or the best of the
// stops near a coordinate (?lat=&lon=).
func (api *RestAPI) destinationsPlanHandler(w http.ResponseWriter, r *http.Request) {
	targets := api.DestinationTargets()
	if len(targets) == 0 {
		api.sendError(w, r, http.StatusNotFound, "no destinations configured")
		return
	}

	query := r.URL.Query()
	origin := strings.TrimSpace(query.Get("origin"))

	idx, snap := api.GtfsManager.Now()

	if origin != "" {
		if _, ok := idx.StopsByID[origin]; !ok {
			api.sendNotFound(w, r)
			return
		}
		options := api.Planner.Search(idx, snap, origin, targets)
		views := make([]OptionView, 0, len(options))
		for _, option := range options {
			views = append(views, optionView(idx, option))
		}
		data := DestinationPlanData{
			Origin:     origin,
			OriginName: idx.StopName(origin),
			Options:    views,
		}
		if len(options) > 0 {
			data.DestinationLabel = api.DestinationLabel(options[0].TargetStopID)
		}
		api.sendResponse(w, r, models.NewOKResponse(data, api.Clock))
		return
	}

	lat, latErr := strconv.ParseFloat(query.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(query.Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		api.sendError(w, r, http.StatusBadRequest, "origin or lat/lon is required")
		return
	}

	nearest := api.GtfsManager.StopsNear(lat, lon, 8)
	best := api.Planner.BestFromOrigins(idx, snap, nearest, targets)
	if best == nil {
		api.sendResponse(w, r, models.NewOKResponse(DestinationPlanData{Options: []OptionView{}}, api.Clock))
		return
	}

	api.sendResponse(w, r, models.NewOKResponse(DestinationPlanData{
		Origin:           best.OriginStop.ID,
		OriginName:       idx.StopName(best.OriginStop.ID),
		OriginDistanceM:  best.DistanceM,
		DestinationLabel: api.DestinationLabel(best.Option.TargetStopID),
		Options:          []OptionView{optionView(idx, best.Option)},
	}, api.Clock))
}
