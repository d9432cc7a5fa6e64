// Package publish streams interpolated vehicle positions to NATS so
// external consumers (dashboards, recorders) can follow the fleet
// without polling the API.
package publish

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/GTD-TFS/bus/internal/gtfs"
	"github.com/GTD-TFS/bus/internal/logging"
)

// PublisherMetrics receives publish outcomes. A nil implementation is
// allowed everywhere.
type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

// VehicleSource supplies the current vehicle statuses. The GTFS
// manager satisfies it through a small adapter in the app package.
type VehicleSource interface {
	CurrentVehicles() []gtfs.VehicleStatus
}

// NATSPublisher pushes vehicle positions to per-line subjects under
// the "bus.positions" prefix.
type NATSPublisher struct {
	nc      *nats.Conn
	logger  *slog.Logger
	metrics PublisherMetrics

	interval time.Duration
	done     chan struct{}
	stopped  chan struct{}
}

// NewNATSPublisher connects to the NATS server. Connection state
// changes feed the metrics gauge.
func NewNATSPublisher(url string, interval time.Duration, logger *slog.Logger, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("bus-positions"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			logging.LogOperation(logger, "nats_disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			logging.LogOperation(logger, "nats_reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			logging.LogOperation(logger, "nats_closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	if m != nil {
		m.NATSSetConnected(true)
	}

	if interval <= 0 {
		interval = 15 * time.Second
	}

	return &NATSPublisher{
		nc:       nc,
		logger:   logger,
		metrics:  m,
		interval: interval,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// PositionMessage is the wire format for one vehicle position.
type PositionMessage struct {
	TripID      string    `json:"tripId"`
	Line        string    `json:"line"`
	Headsign    string    `json:"headsign"`
	Timestamp   time.Time `json:"timestamp"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	ProgressPct float64   `json:"progressPct"`
	NextStopID  string    `json:"nextStopId"`
}

// PublishPosition sends one message on bus.positions.<line>.<trip>.
func (p *NATSPublisher) PublishPosition(msg PositionMessage) error {
	subject := fmt.Sprintf("bus.positions.%s.%s", subjectToken(msg.Line), subjectToken(msg.TripID))
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

// Run publishes every active vehicle on each tick until Stop. Call it
// in its own goroutine.
func (p *NATSPublisher) Run(source VehicleSource) {
	defer close(p.stopped)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			for _, status := range source.CurrentVehicles() {
				if status.Position == nil {
					continue
				}
				err := p.PublishPosition(PositionMessage{
					TripID:      status.TripID,
					Line:        status.Line,
					Headsign:    status.Headsign,
					Timestamp:   now,
					Lat:         status.Position.Lat,
					Lon:         status.Position.Lon,
					ProgressPct: status.ProgressPct,
					NextStopID:  status.NextStopID,
				})
				if err != nil {
					logging.LogError(p.logger, "failed to publish vehicle position", err,
						slog.String("trip_id", status.TripID))
				}
			}

		case <-p.done:
			return
		}
	}
}

// Stop halts the publish loop and drains the connection.
func (p *NATSPublisher) Stop() {
	close(p.done)
	<-p.stopped

	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			logging.LogError(p.logger, "nats drain failed", err)
		}
		p.nc.Close()
	}
}

// subjectToken sanitizes an ID for use as a NATS subject token.
func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS tokens cannot contain spaces, '>', '*', or '.'.
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
