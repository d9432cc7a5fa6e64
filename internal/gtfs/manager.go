package gtfs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GTD-TFS/bus/internal/clock"
	"github.com/GTD-TFS/bus/internal/logging"
	"github.com/GTD-TFS/bus/internal/metrics"
)

// Manager owns the live schedule index and swaps in replacements on
// feed refresh or line-filter changes. Readers take a snapshot of the
// current index and keep using it even while a rebuild is underway.
type Manager struct {
	config Config

	staticMutex       sync.RWMutex
	staticUpdateMutex sync.Mutex

	dataset    *Dataset
	index      *ScheduleIndex
	stopIndex  *StopIndex
	location   *time.Location
	lines      []string
	generation uint64

	lastUpdated time.Time
	isHealthy   bool

	Clock   clock.Clock
	Metrics *metrics.Metrics

	shutdownOnce sync.Once
	shutdownChan chan struct{}
	wg           sync.WaitGroup
}

// InitManager loads the feed from the configured sources and builds
// the first index. The returned manager is ready to serve queries;
// call Start to enable periodic refresh.
func InitManager(config Config) (*Manager, error) {
	config = config.withDefaults()

	manager := &Manager{
		config:       config,
		lines:        append([]string(nil), config.InitialLines...),
		Clock:        clock.RealClock{},
		shutdownChan: make(chan struct{}),
	}

	dataset, err := Load(config)
	if err != nil {
		return nil, fmt.Errorf("initial GTFS load failed: %w", err)
	}

	manager.installDataset(dataset)
	return manager, nil
}

// installDataset rebuilds every derived structure from a freshly
// parsed dataset and swaps it in under the write lock.
func (manager *Manager) installDataset(dataset *Dataset) {
	started := time.Now()

	manager.staticMutex.Lock()
	defer manager.staticMutex.Unlock()

	manager.generation++
	manager.dataset = dataset
	manager.index = BuildIndex(dataset, manager.lines, manager.config.DestinationStopIDs, manager.generation)
	manager.stopIndex = NewStopIndex(manager.index.OriginStops)

	loc, err := time.LoadLocation(dataset.Timezone)
	if err != nil {
		loc, _ = time.LoadLocation(DefaultTimezone)
	}
	manager.location = loc

	manager.lastUpdated = time.Now()
	manager.isHealthy = true

	manager.recordRebuild(time.Since(started))
}

func (manager *Manager) recordRebuild(took time.Duration) {
	if manager.Metrics == nil {
		return
	}
	manager.Metrics.IndexRebuildsTotal.Inc()
	manager.Metrics.IndexRebuildSeconds.Set(took.Seconds())
}

// Index returns the current schedule index. The returned value is
// immutable; callers may use it for as long as they like.
func (manager *Manager) Index() *ScheduleIndex {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.index
}

// StopsNear returns the closest stops to a coordinate.
func (manager *Manager) StopsNear(lat, lon float64, count int) []StopDistance {
	manager.staticMutex.RLock()
	stopIndex := manager.stopIndex
	manager.staticMutex.RUnlock()
	return stopIndex.Nearest(lat, lon, count)
}

// Location returns the feed's timezone.
func (manager *Manager) Location() *time.Location {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.location
}

// Now captures the current moment in the feed's timezone together
// with the index it applies to, so one query sees consistent state.
func (manager *Manager) Now() (*ScheduleIndex, Snapshot) {
	manager.staticMutex.RLock()
	index := manager.index
	loc := manager.location
	manager.staticMutex.RUnlock()
	return index, NowInLocation(manager.Clock, loc)
}

// SetLines replaces the line filter and rebuilds the index from the
// already-loaded dataset. No network access happens.
func (manager *Manager) SetLines(lines []string) {
	started := time.Now()

	manager.staticMutex.Lock()
	manager.lines = append([]string(nil), lines...)
	manager.generation++
	manager.index = BuildIndex(manager.dataset, manager.lines, manager.config.DestinationStopIDs, manager.generation)
	manager.stopIndex = NewStopIndex(manager.index.OriginStops)
	manager.lastUpdated = time.Now()
	manager.staticMutex.Unlock()

	manager.recordRebuild(time.Since(started))
}

// Lines returns the active line filter.
func (manager *Manager) Lines() []string {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return append([]string(nil), manager.lines...)
}

// GetConfig returns the manager's configuration.
func (manager *Manager) GetConfig() Config {
	return manager.config
}

// IsHealthy reports whether the manager is serving usable data.
func (manager *Manager) IsHealthy() bool {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.isHealthy
}

// LastUpdated returns when the index was last rebuilt.
func (manager *Manager) LastUpdated() time.Time {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.lastUpdated
}

// ForceUpdate refetches the feed and hot-swaps the index. Concurrent
// calls serialize; readers keep the old index until the swap.
func (manager *Manager) ForceUpdate(ctx context.Context) error {
	manager.staticUpdateMutex.Lock()
	defer manager.staticUpdateMutex.Unlock()

	logger := slog.Default().With(slog.String("component", "gtfs_updater"))

	dataset, err := Load(manager.config)
	if err != nil {
		logging.LogError(logger, "error updating GTFS data", err)
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	manager.installDataset(dataset)

	logging.LogOperation(logger, "gtfs_static_data_updated_hot_swap",
		slog.Int("routes", len(dataset.Routes)),
		slog.Int("trips", len(dataset.Trips)))
	return nil
}

// Start launches the periodic refresh goroutine. It is a no-op when
// refresh is disabled or every source is a local file.
func (manager *Manager) Start() {
	if manager.config.RefreshInterval <= 0 {
		return
	}
	remote := false
	for _, source := range manager.config.Sources {
		if !isLocalFile(source) {
			remote = true
			break
		}
	}
	if !remote {
		return
	}

	manager.wg.Add(1)
	go manager.updateStaticPeriodically()
}

func (manager *Manager) updateStaticPeriodically() {
	defer manager.wg.Done()

	logger := slog.Default().With(slog.String("component", "gtfs_static_updater"))

	ticker := time.NewTicker(manager.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			err := manager.ForceUpdate(ctx)
			cancel()

			if err != nil {
				logging.LogError(logger, "error refreshing GTFS data", err)
				continue
			}

		case <-manager.shutdownChan:
			logging.LogOperation(logger, "shutting_down_static_gtfs_updates")
			return
		}
	}
}

// Shutdown stops background work. Safe to call more than once.
func (manager *Manager) Shutdown() {
	manager.shutdownOnce.Do(func() {
		close(manager.shutdownChan)
	})
	manager.wg.Wait()
}
