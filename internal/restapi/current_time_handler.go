package restapi

import (
	"net/http"

	"github.com/GTD-TFS/bus/internal/models"
)

// currentTimeHandler reports the server's notion of now in the feed's
// timezone, so clients can line their clocks up with the schedule.
func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	if !api.GtfsManager.IsHealthy() {
		http.Error(w, "Service Unavailable: GTFS data invalid", http.StatusServiceUnavailable)
		return
	}

	now := api.Clock.Now().In(api.GtfsManager.Location())
	response := models.NewOKResponse(models.NewCurrentTimeData(now), api.Clock)

	api.sendResponse(w, r, response)
}
