package restapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/GTD-TFS/bus/internal/models"
)

// LinesData lists the feed's lines and the active filter.
type LinesData struct {
	Available []string `json:"available"`
	Active    []string `json:"active"`
}

// linesHandler answers GET /v1/lines.
func (api *RestAPI) linesHandler(w http.ResponseWriter, r *http.Request) {
	idx := api.GtfsManager.Index()

	api.sendResponse(w, r, models.NewOKResponse(LinesData{
		Available: idx.LineOptions,
		Active:    idx.Lines,
	}, api.Clock))
}

type setLinesRequest struct {
	Lines []string `json:"lines"`
}

// setLinesHandler answers PUT /v1/lines, replacing the line filter and
// rebuilding the schedule index. An empty list clears the filter.
func (api *RestAPI) setLinesHandler(w http.ResponseWriter, r *http.Request) {
	if api.RequestHasInvalidAPIKey(r) {
		api.sendError(w, r, http.StatusUnauthorized, "permission denied")
		return
	}

	var request setLinesRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		api.sendError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	idx := api.GtfsManager.Index()
	known := make(map[string]bool, len(idx.LineOptions))
	for _, line := range idx.LineOptions {
		known[line] = true
	}

	lines := make([]string, 0, len(request.Lines))
	for _, line := range request.Lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !known[line] {
			api.sendError(w, r, http.StatusBadRequest, "unknown line: "+line)
			return
		}
		lines = append(lines, line)
	}

	api.GtfsManager.SetLines(lines)

	updated := api.GtfsManager.Index()
	api.sendResponse(w, r, models.NewOKResponse(LinesData{
		Available: updated.LineOptions,
		Active:    updated.Lines,
	}, api.Clock))
}
