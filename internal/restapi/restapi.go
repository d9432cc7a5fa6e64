// Package restapi exposes the itinerary planner, stop and vehicle
// views over HTTP.
package restapi

import (
	"net/http"

	"github.com/GTD-TFS/bus/internal/app"
)

// RestAPI wires the application into HTTP handlers.
type RestAPI struct {
	*app.Application
}

// SetRoutes registers every API route on the mux.
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	// Schedule data only changes on feed refresh; short shared caching
	// keeps per-minute planner results fresh enough.
	mux.Handle("GET /v1/plan", CacheControlMiddleware(30, http.HandlerFunc(api.planHandler)))
	mux.Handle("GET /v1/destinations/plan", CacheControlMiddleware(30, http.HandlerFunc(api.destinationsPlanHandler)))
	mux.Handle("GET /v1/stops/nearest", CacheControlMiddleware(300, http.HandlerFunc(api.nearestStopsHandler)))
	mux.Handle("GET /v1/stops/{id}/departures", CacheControlMiddleware(30, http.HandlerFunc(api.stopDeparturesHandler)))
	mux.Handle("GET /v1/vehicles", CacheControlMiddleware(0, http.HandlerFunc(api.vehiclesHandler)))
	mux.Handle("GET /v1/shapes/{id}", CacheControlMiddleware(3600, http.HandlerFunc(api.shapeHandler)))
	mux.HandleFunc("GET /v1/lines", api.linesHandler)
	mux.HandleFunc("PUT /v1/lines", api.setLinesHandler)
	mux.HandleFunc("GET /v1/current-time", api.currentTimeHandler)
	mux.HandleFunc("GET /healthz", api.healthHandler)
}
