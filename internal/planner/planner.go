// Package planner searches the schedule index for direct and
// one-transfer itineraries between stops.
package planner

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/GTD-TFS/bus/internal/gtfs"
	"github.com/GTD-TFS/bus/internal/metrics"
)

// Config bounds the search. Zero values take the defaults below.
type Config struct {
	// StrictWindow is the departure window for the first pass, which
	// only considers trips in service today.
	StrictWindow time.Duration
	// FallbackWindow is the wider second-pass window used when the
	// strict pass finds nothing. It ignores service days and wraps
	// departures into the next day.
	FallbackWindow time.Duration
	// TransferBuffer is the minimum connection time at a transfer stop.
	TransferBuffer time.Duration
	// MaxTransferStops caps how far past the boarding position the
	// first leg is scanned for transfer points.
	MaxTransferStops int
	// MaxLegCandidates caps first-leg departures considered per origin.
	MaxLegCandidates int
	// MaxTransferCandidates caps second-leg departures per transfer stop.
	MaxTransferCandidates int
	// MaxResults caps the itineraries returned; generation stops early
	// once this many are collected.
	MaxResults int
	// CacheCapacity bounds the result cache.
	CacheCapacity int
	// MaxOrigins caps the nearby stops tried by BestFromOrigins.
	MaxOrigins int
	// FilteredLinesOnly restricts the search to the line-filtered
	// working set instead of every loaded trip.
	FilteredLinesOnly bool
}

func (c Config) withDefaults() Config {
	if c.StrictWindow <= 0 {
		c.StrictWindow = 720 * time.Minute
	}
	if c.FallbackWindow <= 0 {
		c.FallbackWindow = 36 * time.Hour
	}
	if c.TransferBuffer <= 0 {
		c.TransferBuffer = 2 * time.Minute
	}
	if c.MaxTransferStops <= 0 {
		c.MaxTransferStops = 16
	}
	if c.MaxLegCandidates <= 0 {
		c.MaxLegCandidates = 20
	}
	if c.MaxTransferCandidates <= 0 {
		c.MaxTransferCandidates = 14
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 10
	}
	if c.CacheCapacity <= 0 {
		c.CacheCapacity = 120
	}
	if c.MaxOrigins <= 0 {
		c.MaxOrigins = 8
	}
	return c
}

// Leg is one ride on a single trip.
type Leg struct {
	TripID     string
	Line       string
	Headsign   string
	FromStopID string
	FromStop   string
	ToStopID   string
	ToStop     string
	DepartSec  int
	ArriveSec  int
}

// Option is one itinerary from the origin to a target stop.
type Option struct {
	Legs         []Leg
	TargetStopID string
	Transfers    int
	Fallback     bool
	DepartSec    int
	ArriveSec    int
	WaitMin      int
	TotalMin     int
}

// BestOption pairs the winning itinerary with the origin stop it
// departs from, for searches that start from a coordinate.
type BestOption struct {
	Option     Option
	OriginStop gtfs.Stop
	DistanceM  float64
}

// Engine runs itinerary searches and caches recent results. Safe for
// concurrent use.
type Engine struct {
	cfg     Config
	metrics *metrics.Metrics

	mu        sync.Mutex
	cache     *resultCache
	cachedGen uint64
}

// New creates an engine. metrics may be nil.
func New(cfg Config, m *metrics.Metrics) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		cfg:     cfg,
		metrics: m,
		cache:   newResultCache(cfg.CacheCapacity),
	}
}

// Search finds itineraries from origin to any of the target stops. A
// strict pass limited to today's services runs first; when it finds
// nothing, a wider fallback pass ignores service days, wraps into the
// next day and tags its results.
func (e *Engine) Search(idx *gtfs.ScheduleIndex, snap gtfs.Snapshot, origin string, targets []string) []Option {
	if idx == nil || origin == "" || len(targets) == 0 {
		return nil
	}

	key := cacheKey(origin, targets, snap.Seconds, idx.Generation)

	e.mu.Lock()
	if e.cachedGen != idx.Generation {
		e.cache.clear()
		e.cachedGen = idx.Generation
	}
	if cached, ok := e.cache.get(key); ok {
		e.mu.Unlock()
		if e.metrics != nil {
			e.metrics.PlannerCacheHits.Inc()
		}
		return cached
	}
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.PlannerCacheMisses.Inc()
	}

	started := time.Now()

	targetSet := make(map[string]bool, len(targets))
	for _, target := range targets {
		targetSet[target] = true
	}

	options := e.pass(idx, snap, origin, targetSet, true)
	e.observePass("strict", options)

	if len(options) == 0 {
		options = e.pass(idx, snap, origin, targetSet, false)
		e.observePass("fallback", options)
	}

	if e.metrics != nil {
		e.metrics.PlannerSearchDuration.Observe(time.Since(started).Seconds())
	}

	e.mu.Lock()
	e.cache.put(key, options)
	e.mu.Unlock()

	return options
}

func (e *Engine) observePass(pass string, options []Option) {
	if e.metrics == nil {
		return
	}
	outcome := "found"
	if len(options) == 0 {
		outcome = "empty"
	}
	e.metrics.PlannerSearchesTotal.WithLabelValues(pass, outcome).Inc()
}

// pass runs one search pass. Strict passes keep to trips in service
// today and never wrap; fallback passes take any scheduled trip.
func (e *Engine) pass(idx *gtfs.ScheduleIndex, snap gtfs.Snapshot, origin string, targetSet map[string]bool, strict bool) []Option {
	now := snap.Seconds

	window := e.cfg.FallbackWindow
	if strict {
		window = e.cfg.StrictWindow
	}
	maxSec := now + int(window/time.Second)

	var activeTrips map[string]bool
	if strict {
		activeTrips = idx.ActiveTripIDs(snap)
	}

	firstLegs := idx.CandidateDepartures(origin, gtfs.DepartureQuery{
		EarliestSec:   now,
		MaxSec:        maxSec,
		Limit:         e.cfg.MaxLegCandidates,
		WrapToNextDay: !strict,
		StrictService: strict,
		ActiveTrips:   activeTrips,
		FilteredOnly:  e.cfg.FilteredLinesOnly,
	})

	var options []Option
	seen := make(map[string]bool)

	for _, first := range firstLegs {
		if len(options) >= e.cfg.MaxResults {
			break
		}
		options = e.extendCandidate(idx, snap, first, targetSet, activeTrips, strict, maxSec, seen, options)
	}

	for i := range options {
		options[i].Fallback = !strict
		options[i].WaitMin = ceilMinutes(options[i].DepartSec - now)
		options[i].TotalMin = ceilMinutes(options[i].ArriveSec - now)
	}

	sort.SliceStable(options, func(i, j int) bool {
		if options[i].TotalMin != options[j].TotalMin {
			return options[i].TotalMin < options[j].TotalMin
		}
		return options[i].DepartSec < options[j].DepartSec
	})

	if len(options) > e.cfg.MaxResults {
		options = options[:e.cfg.MaxResults]
	}
	return options
}

// extendCandidate rides one first-leg departure forward, collecting
// direct arrivals at target stops and one-transfer continuations.
func (e *Engine) extendCandidate(idx *gtfs.ScheduleIndex, snap gtfs.Snapshot, first gtfs.Candidate, targetSet map[string]bool, activeTrips map[string]bool, strict bool, maxSec int, seen map[string]bool, options []Option) []Option {
	visits := idx.VisitsByTrip[first.TripID]
	line := idx.Line(first.TripID)
	headsign := idx.TripsByID[first.TripID].Headsign

	// Direct arrival: only the first reachable target on the trip
	// counts, riders alight there rather than riding past it.
	for i := first.VisitIndex + 1; i < len(visits); i++ {
		if !targetSet[visits[i].StopID] {
			continue
		}
		arr, ok := visits[i].EffectiveArrival()
		if !ok {
			continue
		}
		arr += first.DayOffset

		key := line + "|" + visits[i].StopID + "|D"
		if !seen[key] {
			seen[key] = true
			options = append(options, Option{
				Legs: []Leg{{
					TripID:     first.TripID,
					Line:       line,
					Headsign:   headsign,
					FromStopID: first.StopID,
					FromStop:   idx.StopName(first.StopID),
					ToStopID:   visits[i].StopID,
					ToStop:     idx.StopName(visits[i].StopID),
					DepartSec:  first.DepartureSec,
					ArriveSec:  arr,
				}},
				TargetStopID: visits[i].StopID,
				Transfers:    0,
				DepartSec:    first.DepartureSec,
				ArriveSec:    arr,
			})
		}
		break
	}
	if len(options) >= e.cfg.MaxResults {
		return options
	}

	// One-transfer continuations from the stops after boarding.
	buffer := int(e.cfg.TransferBuffer / time.Second)
	lastTransfer := first.VisitIndex + e.cfg.MaxTransferStops
	if lastTransfer > len(visits)-1 {
		lastTransfer = len(visits) - 1
	}

	for i := first.VisitIndex + 1; i <= lastTransfer; i++ {
		transferStop := visits[i].StopID
		// A target stop is a destination, not a transfer point.
		if targetSet[transferStop] {
			continue
		}

		arriveTransfer, ok := visits[i].EffectiveArrival()
		if !ok {
			continue
		}
		arriveTransfer += first.DayOffset
		if arriveTransfer >= maxSec {
			continue
		}

		secondLegs := idx.CandidateDepartures(transferStop, gtfs.DepartureQuery{
			EarliestSec:   arriveTransfer + buffer,
			MaxSec:        maxSec,
			Limit:         e.cfg.MaxTransferCandidates,
			WrapToNextDay: !strict,
			StrictService: strict,
			ActiveTrips:   activeTrips,
			ExcludeTrips:  map[string]bool{first.TripID: true},
			FilteredOnly:  e.cfg.FilteredLinesOnly,
		})

		for _, second := range secondLegs {
			options = e.completeTransfer(idx, first, second, i, targetSet, line, headsign, seen, options)
			if len(options) >= e.cfg.MaxResults {
				return options
			}
		}
	}

	return options
}

// completeTransfer rides the second leg to its first reachable target
// stop and emits a two-leg option for it.
func (e *Engine) completeTransfer(idx *gtfs.ScheduleIndex, first, second gtfs.Candidate, transferVisit int, targetSet map[string]bool, line, headsign string, seen map[string]bool, options []Option) []Option {
	firstVisits := idx.VisitsByTrip[first.TripID]
	secondVisits := idx.VisitsByTrip[second.TripID]
	secondLine := idx.Line(second.TripID)
	secondHeadsign := idx.TripsByID[second.TripID].Headsign

	arriveTransfer, _ := firstVisits[transferVisit].EffectiveArrival()
	arriveTransfer += first.DayOffset

	for j := second.VisitIndex + 1; j < len(secondVisits); j++ {
		if !targetSet[secondVisits[j].StopID] {
			continue
		}
		arr, ok := secondVisits[j].EffectiveArrival()
		if !ok {
			continue
		}
		arr += second.DayOffset

		key := line + ">" + secondLine + "|" + secondVisits[j].StopID + "|" +
			strconv.Itoa(second.DepartureSec/300)
		if seen[key] {
			break
		}
		seen[key] = true

		transferStopID := firstVisits[transferVisit].StopID
		options = append(options, Option{
			Legs: []Leg{
				{
					TripID:     first.TripID,
					Line:       line,
					Headsign:   headsign,
					FromStopID: first.StopID,
					FromStop:   idx.StopName(first.StopID),
					ToStopID:   transferStopID,
					ToStop:     idx.StopName(transferStopID),
					DepartSec:  first.DepartureSec,
					ArriveSec:  arriveTransfer,
				},
				{
					TripID:     second.TripID,
					Line:       secondLine,
					Headsign:   secondHeadsign,
					FromStopID: transferStopID,
					FromStop:   idx.StopName(transferStopID),
					ToStopID:   secondVisits[j].StopID,
					ToStop:     idx.StopName(secondVisits[j].StopID),
					DepartSec:  second.DepartureSec,
					ArriveSec:  arr,
				},
			},
			TargetStopID: secondVisits[j].StopID,
			Transfers:    1,
			DepartSec:    first.DepartureSec,
			ArriveSec:    arr,
		})
		break
	}
	return options
}

// BestFromOrigins searches from up to MaxOrigins nearby stops in
// distance order and keeps the option with the lowest total minutes
// across all of them.
func (e *Engine) BestFromOrigins(idx *gtfs.ScheduleIndex, snap gtfs.Snapshot, nearest []gtfs.StopDistance, targets []string) *BestOption {
	tried := 0
	var best *BestOption

	for _, near := range nearest {
		if tried >= e.cfg.MaxOrigins {
			break
		}
		tried++

		options := e.Search(idx, snap, near.Stop.ID, targets)
		if len(options) == 0 {
			continue
		}
		candidate := &BestOption{
			Option:     options[0],
			OriginStop: near.Stop,
			DistanceM:  near.DistanceM,
		}
		if best == nil || candidate.Option.TotalMin < best.Option.TotalMin {
			best = candidate
		}
	}
	return best
}

func ceilMinutes(seconds int) int {
	if seconds <= 0 {
		return 0
	}
	return (seconds + 59) / 60
}

func cacheKey(origin string, targets []string, nowSec int, generation uint64) string {
	sorted := append([]string(nil), targets...)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString(origin)
	b.WriteByte('|')
	b.WriteString(strings.Join(sorted, ","))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(nowSec / 60))
	b.WriteByte('|')
	b.WriteString(strconv.FormatUint(generation, 10))
	return b.String()
}
