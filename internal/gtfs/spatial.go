package gtfs

import (
	"sort"

	"github.com/tidwall/rtree"

	"github.com/GTD-TFS/bus/internal/utils"
)

// StopIndex answers nearest-stop queries over the boarding-origin
// stops that carry coordinates. Build once per schedule index; queries
// are read-only.
type StopIndex struct {
	tree  rtree.RTree
	count int
}

// StopDistance pairs a stop with its distance from a query point.
type StopDistance struct {
	Stop      Stop
	DistanceM float64
}

// NewStopIndex builds a spatial index over the stops with coordinates.
func NewStopIndex(stops []Stop) *StopIndex {
	idx := &StopIndex{}
	for _, stop := range stops {
		if !stop.HasPoint {
			continue
		}
		point := [2]float64{stop.Lon, stop.Lat}
		idx.tree.Insert(point, point, stop)
		idx.count++
	}
	return idx
}

// Len returns the number of indexed stops.
func (s *StopIndex) Len() int { return s.count }

// Nearest returns up to count stops ordered by distance from the query
// point. The search widens its bounding box until enough stops fall
// inside, then ranks them by exact distance.
func (s *StopIndex) Nearest(lat, lon float64, count int) []StopDistance {
	if s == nil || s.count == 0 || count <= 0 {
		return nil
	}

	const maxRadiusM = 100_000.0
	radius := 500.0

	var found []Stop
	for {
		found = found[:0]
		bounds := utils.CalculateBounds(lat, lon, radius)
		s.tree.Search(
			[2]float64{bounds.MinLon, bounds.MinLat},
			[2]float64{bounds.MaxLon, bounds.MaxLat},
			func(min, max [2]float64, value interface{}) bool {
				found = append(found, value.(Stop))
				return true
			},
		)
		if len(found) >= count || radius >= maxRadiusM {
			break
		}
		radius *= 2
	}

	results := make([]StopDistance, 0, len(found))
	for _, stop := range found {
		results = append(results, StopDistance{
			Stop:      stop,
			DistanceM: utils.Distance(lat, lon, stop.Lat, stop.Lon),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].DistanceM != results[j].DistanceM {
			return results[i].DistanceM < results[j].DistanceM
		}
		return results[i].Stop.ID < results[j].Stop.ID
	})

	if len(results) > count {
		results = results[:count]
	}
	return results
}
