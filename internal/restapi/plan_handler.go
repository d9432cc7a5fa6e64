package restapi

import (
	"net/http"
	"strings"

	"github.com/GTD-TFS/bus/internal/gtfs"
	"github.com/GTD-TFS/bus/internal/models"
	"github.com/GTD-TFS/bus/internal/planner"
)

// LegView is the JSON shape of one itinerary leg.
type LegView struct {
	TripID    string `json:"tripId"`
	Line      string `json:"line"`
	Headsign  string `json:"headsign,omitempty"`
	From      string `json:"from"`
	FromID    string `json:"fromId"`
	To        string `json:"to"`
	ToID      string `json:"toId"`
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
}

// OptionView is the JSON shape of one itinerary.
type OptionView struct {
	Target     string    `json:"target"`
	TargetName string    `json:"targetName"`
	Transfers  int       `json:"transfers"`
	Fallback   bool      `json:"fallback"`
	Departure  string    `json:"departure"`
	Arrival    string    `json:"arrival"`
	WaitMin    int       `json:"waitMin"`
	TotalMin   int       `json:"totalMin"`
	Legs       []LegView `json:"legs"`
}

// PlanData is the payload of the plan endpoints.
type PlanData struct {
	Origin     string       `json:"origin"`
	OriginName string       `json:"originName"`
	Options    []OptionView `json:"options"`
}

func optionView(idx *gtfs.ScheduleIndex, option planner.Option) OptionView {
	legs := make([]LegView, 0, len(option.Legs))
	for _, leg := range option.Legs {
		legs = append(legs, LegView{
			TripID:    leg.TripID,
			Line:      leg.Line,
			Headsign:  leg.Headsign,
			From:      leg.FromStop,
			FromID:    leg.FromStopID,
			To:        leg.ToStop,
			ToID:      leg.ToStopID,
			Departure: gtfs.FormatClock(leg.DepartSec),
			Arrival:   gtfs.FormatClock(leg.ArriveSec),
		})
	}
	return OptionView{
		Target:     option.TargetStopID,
		TargetName: idx.StopName(option.TargetStopID),
		Transfers:  option.Transfers,
		Fallback:   option.Fallback,
		Departure:  gtfs.FormatClock(option.DepartSec),
		Arrival:    gtfs.FormatClock(option.ArriveSec),
		WaitMin:    option.WaitMin,
		TotalMin:   option.TotalMin,
		Legs:       legs,
	}
}

// planHandler answers GET /v1/plan?origin=<stop>&targets=<stop,stop>.
func (api *RestAPI) planHandler(w http.ResponseWriter, r *http.Request) {
	origin := strings.TrimSpace(r.URL.Query().Get("origin"))
	if origin == "" {
		api.sendError(w, r, http.StatusBadRequest, "origin is required")
		return
	}

	var targets []string
	for _, target := range strings.Split(r.URL.Query().Get("targets"), ",") {
		target = strings.TrimSpace(target)
		if target != "" {
			targets = append(targets, target)
		}
	}
	if len(targets) == 0 {
		api.sendError(w, r, http.StatusBadRequest, "targets is required")
		return
	}

	idx, snap := api.GtfsManager.Now()
	if _, ok := idx.StopsByID[origin]; !ok {
		api.sendNotFound(w, r)
		return
	}

	options := api.Planner.Search(idx, snap, origin, targets)

	views := make([]OptionView, 0, len(options))
	for _, option := range options {
		views = append(views, optionView(idx, option))
	}

	api.sendResponse(w, r, models.NewOKResponse(PlanData{
		Origin:     origin,
		OriginName: idx.StopName(origin),
		Options:    views,
	}, api.Clock))
}
