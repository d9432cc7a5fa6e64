package webui

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/davecgh/go-spew/spew"

	"github.com/GTD-TFS/bus/internal/appconf"
)

//go:embed debug_index.html
var templateFS embed.FS

type debugData struct {
	Title string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	content := spew.Sdump(data)
	w.Header().Set("Content-Type", "text/html")
	tmpl, err := template.ParseFS(templateFS, "debug_index.html")
	if err != nil {
		// Log the actual error server-side
		slog.Error("failed to parse debug template", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	dataStruct := debugData{
		Title: title,
		Pre:   content,
	}

	err = tmpl.Execute(w, dataStruct)
	if err != nil {
		slog.Error("failed to execute debug template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	if webUI.Config.Env == appconf.Production {
		http.NotFound(w, r)
		return
	}
	dataType := r.URL.Query().Get("dataType")

	var data interface{}
	var title string

	idx := webUI.GtfsManager.Index()

	switch dataType {
	case "routes":
		data = idx.RoutesByID
		title = "Schedule - Routes"
	case "trips":
		data = idx.TripsByID
		title = "Schedule - Trips"
	case "stops":
		data = idx.StopsByID
		title = "Schedule - Stops"
	case "calendar":
		data = map[string]interface{}{
			"rules":      idx.Rules,
			"exceptions": idx.Exceptions,
		}
		title = "Schedule - Service Calendar"
	case "shapes":
		data = idx.ShapesByID
		title = "Schedule - Shapes"
	case "lines":
		data = map[string]interface{}{
			"active":    idx.Lines,
			"available": idx.LineOptions,
		}
		title = "Schedule - Lines"
	case "origin_stops":
		data = idx.OriginStops
		title = "Schedule - Origin Stops"
	case "vehicles":
		data = webUI.CurrentVehicles()
		title = "Schedule - Estimated Vehicles"
	default:
		data = map[string]string{
			"error": "Please use one of the following: routes, trips, stops, calendar, shapes, lines, origin_stops, vehicles.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}
