package restapi

import (
	"encoding/json"
	"net/http"
)

// HealthResponse represents the JSON response from the health endpoint.
type HealthResponse struct {
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
	LastUpdated string `json:"lastUpdated,omitempty"`
}

// healthHandler reports readiness. It returns 503 until the schedule
// index is built.
func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if api.Application == nil || api.GtfsManager == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status: "unavailable",
			Detail: "manager not initialized",
		})
		return
	}

	if !api.GtfsManager.IsHealthy() || api.GtfsManager.Index() == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status: "starting",
			Detail: "GTFS data is being loaded and indexed",
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(HealthResponse{
		Status:      "ok",
		LastUpdated: api.GtfsManager.LastUpdated().Format("2006-01-02T15:04:05Z07:00"),
	})
}
