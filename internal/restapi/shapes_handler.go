package restapi

import (
	"net/http"
	"sort"

	"github.com/twpayne/go-polyline"

	"github.com/GTD-TFS/bus/internal/gtfs"
	"github.com/GTD-TFS/bus/internal/models"
)

// ShapeData carries one route geometry as an encoded polyline.
type ShapeData struct {
	ShapeID  string `json:"shapeId"`
	Points   int    `json:"points"`
	Polyline string `json:"polyline"`
}

// shapeHandler answers GET /v1/shapes/{id} with the geometry encoded
// in the Google polyline format.
func (api *RestAPI) shapeHandler(w http.ResponseWriter, r *http.Request) {
	shapeID := r.PathValue("id")

	idx := api.GtfsManager.Index()
	points := idx.ShapesByID[shapeID]
	if len(points) == 0 {
		api.sendNotFound(w, r)
		return
	}

	ordered := make([]gtfs.ShapePoint, len(points))
	copy(ordered, points)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Sequence < ordered[j].Sequence
	})

	coords := make([][]float64, 0, len(ordered))
	for _, point := range ordered {
		coords = append(coords, []float64{point.Lat, point.Lon})
	}

	api.sendResponse(w, r, models.NewOKResponse(ShapeData{
		ShapeID:  shapeID,
		Points:   len(coords),
		Polyline: string(polyline.EncodeCoords(coords)),
	}, api.Clock))
}
