package gtfs

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/GTD-TFS/bus/internal/logging"
)

const maxStaticSize = 200 * 1024 * 1024

// Load reads a GTFS zip archive from the first source that works and
// parses it into a Dataset. Sources are tried in order, so a remote
// feed can be fronted by a bundled fallback copy.
func Load(config Config) (*Dataset, error) {
	logger := slog.Default().With(slog.String("component", "gtfs_loader"))

	var lastErr error
	for _, source := range config.Sources {
		b, err := rawGtfsData(source, isLocalFile(source), config)
		if err != nil {
			logging.LogError(logger, "gtfs source failed, trying next", err,
				slog.String("source", source))
			lastErr = err
			continue
		}

		dataset, err := parseArchive(b, logger)
		if err != nil {
			logging.LogError(logger, "gtfs archive unusable, trying next", err,
				slog.String("source", source))
			lastErr = err
			continue
		}

		logging.LogOperation(logger, "gtfs_loaded",
			slog.String("source", source),
			slog.Int("routes", len(dataset.Routes)),
			slog.Int("trips", len(dataset.Trips)),
			slog.Int("stop_visits", len(dataset.StopVisits)),
			slog.Int("stops", len(dataset.Stops)))
		return dataset, nil
	}

	if lastErr == nil {
		return nil, fmt.Errorf("no GTFS sources configured")
	}
	return nil, fmt.Errorf("all GTFS sources failed: %w", lastErr)
}

func isLocalFile(source string) bool {
	return !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://")
}

func rawGtfsData(source string, isLocalFile bool, config Config) ([]byte, error) {
	if isLocalFile {
		b, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("error reading local GTFS file: %w", err)
		}
		return b, nil
	}

	req, err := http.NewRequest("GET", source, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating GTFS request: %w", err)
	}

	// Add auth header if provided
	if config.StaticAuthHeaderKey != "" && config.StaticAuthHeaderValue != "" {
		req.Header.Set(config.StaticAuthHeaderKey, config.StaticAuthHeaderValue)
	}

	client := &http.Client{
		Timeout: 5 * time.Minute,
		Transport: &http.Transport{
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       90 * time.Second,
		}}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading GTFS data: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "gtfs_downloader")),
		"http_response_body")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download GTFS data: received HTTP status %s", resp.Status)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxStaticSize+1))
	if err != nil {
		return nil, fmt.Errorf("error reading GTFS data: %w", err)
	}
	if int64(len(b)) > maxStaticSize {
		return nil, fmt.Errorf("static GTFS response exceeds size limit of %d bytes", maxStaticSize)
	}
	return b, nil
}

// table is one parsed CSV file: a header index plus the data rows.
type table struct {
	columns map[string]int
	rows    [][]string
}

func (t *table) field(row []string, name string) string {
	idx, ok := t.columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func readTable(f *zip.File) (*table, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", f.Name, err)
	}
	defer rc.Close() // nolint

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading %s header: %w", f.Name, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		// Strip a UTF-8 BOM some feed exporters prepend.
		columns[strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")] = i
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading %s rows: %w", f.Name, err)
	}

	return &table{columns: columns, rows: rows}, nil
}

func parseArchive(b []byte, logger *slog.Logger) (*Dataset, error) {
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("error opening GTFS archive: %w", err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		// Some archives nest everything under a single directory.
		name := f.Name
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		if _, seen := files[name]; !seen {
			files[name] = f
		}
	}

	for _, required := range []string{"routes.txt", "trips.txt", "stop_times.txt", "stops.txt"} {
		if _, ok := files[required]; !ok {
			return nil, fmt.Errorf("GTFS archive is missing %s", required)
		}
	}

	dataset := &Dataset{
		Shapes:   make(map[string][]ShapePoint),
		Timezone: DefaultTimezone,
	}

	if err := parseRoutes(files["routes.txt"], dataset); err != nil {
		return nil, err
	}
	if err := parseTrips(files["trips.txt"], dataset); err != nil {
		return nil, err
	}
	if err := parseStopVisits(files["stop_times.txt"], dataset, logger); err != nil {
		return nil, err
	}
	if err := parseStops(files["stops.txt"], dataset, logger); err != nil {
		return nil, err
	}

	if f, ok := files["calendar.txt"]; ok {
		if err := parseCalendar(f, dataset); err != nil {
			logging.LogError(logger, "skipping unusable calendar.txt", err)
		}
	}
	if f, ok := files["calendar_dates.txt"]; ok {
		if err := parseCalendarDates(f, dataset); err != nil {
			logging.LogError(logger, "skipping unusable calendar_dates.txt", err)
		}
	}
	if f, ok := files["shapes.txt"]; ok {
		if err := parseShapes(f, dataset); err != nil {
			logging.LogError(logger, "skipping unusable shapes.txt", err)
		}
	}
	if f, ok := files["agency.txt"]; ok {
		if err := parseAgency(f, dataset); err != nil {
			logging.LogError(logger, "skipping unusable agency.txt", err)
		}
	}

	return dataset, nil
}

func parseRoutes(f *zip.File, dataset *Dataset) error {
	t, err := readTable(f)
	if err != nil {
		return err
	}

	for _, row := range t.rows {
		id := t.field(row, "route_id")
		if id == "" {
			continue
		}
		shortName := t.field(row, "route_short_name")
		if shortName == "" {
			shortName = t.field(row, "route_long_name")
		}
		dataset.Routes = append(dataset.Routes, Route{ID: id, ShortName: shortName})
	}
	return nil
}

func parseTrips(f *zip.File, dataset *Dataset) error {
	t, err := readTable(f)
	if err != nil {
		return err
	}

	for _, row := range t.rows {
		id := t.field(row, "trip_id")
		routeID := t.field(row, "route_id")
		if id == "" || routeID == "" {
			continue
		}

		var direction int8
		if d, err := strconv.Atoi(t.field(row, "direction_id")); err == nil {
			direction = int8(d)
		}

		dataset.Trips = append(dataset.Trips, Trip{
			ID:          id,
			RouteID:     routeID,
			Headsign:    t.field(row, "trip_headsign"),
			DirectionID: direction,
			ServiceID:   t.field(row, "service_id"),
			ShapeID:     t.field(row, "shape_id"),
		})
	}
	return nil
}

func parseStopVisits(f *zip.File, dataset *Dataset, logger *slog.Logger) error {
	t, err := readTable(f)
	if err != nil {
		return err
	}

	skipped := 0
	for _, row := range t.rows {
		tripID := t.field(row, "trip_id")
		stopID := t.field(row, "stop_id")
		seq, seqErr := strconv.Atoi(t.field(row, "stop_sequence"))
		if tripID == "" || stopID == "" || seqErr != nil {
			skipped++
			continue
		}

		arrival, arrivalOK := ParseClock(t.field(row, "arrival_time"))
		departure, departureOK := ParseClock(t.field(row, "departure_time"))

		dataset.StopVisits = append(dataset.StopVisits, StopVisit{
			TripID:       tripID,
			StopID:       stopID,
			Sequence:     seq,
			ArrivalSec:   arrival,
			DepartureSec: departure,
			ArrivalOK:    arrivalOK,
			DepartureOK:  departureOK,
		})
	}

	if skipped > 0 {
		logging.LogOperation(logger, "skipped_malformed_stop_times",
			slog.Int("count", skipped))
	}
	return nil
}

func parseStops(f *zip.File, dataset *Dataset, logger *slog.Logger) error {
	t, err := readTable(f)
	if err != nil {
		return err
	}

	skipped := 0
	for _, row := range t.rows {
		id := t.field(row, "stop_id")
		if id == "" {
			skipped++
			continue
		}

		lat, latErr := strconv.ParseFloat(t.field(row, "stop_lat"), 64)
		lon, lonErr := strconv.ParseFloat(t.field(row, "stop_lon"), 64)

		name := t.field(row, "stop_name")
		if name == "" {
			name = id
		}

		dataset.Stops = append(dataset.Stops, Stop{
			ID:       id,
			Name:     name,
			Lat:      lat,
			Lon:      lon,
			HasPoint: latErr == nil && lonErr == nil,
		})
	}

	if skipped > 0 {
		logging.LogOperation(logger, "skipped_malformed_stops",
			slog.Int("count", skipped))
	}
	return nil
}

func parseCalendar(f *zip.File, dataset *Dataset) error {
	t, err := readTable(f)
	if err != nil {
		return err
	}

	dayColumns := map[string]string{
		"mon": "monday", "tue": "tuesday", "wed": "wednesday",
		"thu": "thursday", "fri": "friday", "sat": "saturday", "sun": "sunday",
	}

	for _, row := range t.rows {
		id := t.field(row, "service_id")
		if id == "" {
			continue
		}

		weekdays := make(map[string]bool, 7)
		for key, column := range dayColumns {
			weekdays[key] = t.field(row, column) == "1"
		}

		dataset.Rules = append(dataset.Rules, ServiceRule{
			ServiceID: id,
			Weekdays:  weekdays,
			StartDate: t.field(row, "start_date"),
			EndDate:   t.field(row, "end_date"),
		})
	}
	return nil
}

func parseCalendarDates(f *zip.File, dataset *Dataset) error {
	t, err := readTable(f)
	if err != nil {
		return err
	}

	for _, row := range t.rows {
		id := t.field(row, "service_id")
		date := t.field(row, "date")
		exceptionType, typeErr := strconv.Atoi(t.field(row, "exception_type"))
		if id == "" || date == "" || typeErr != nil {
			continue
		}

		dataset.Exceptions = append(dataset.Exceptions, ServiceException{
			ServiceID:     id,
			Date:          date,
			ExceptionType: exceptionType,
		})
	}
	return nil
}

func parseShapes(f *zip.File, dataset *Dataset) error {
	t, err := readTable(f)
	if err != nil {
		return err
	}

	for _, row := range t.rows {
		id := t.field(row, "shape_id")
		if id == "" {
			continue
		}

		lat, latErr := strconv.ParseFloat(t.field(row, "shape_pt_lat"), 64)
		lon, lonErr := strconv.ParseFloat(t.field(row, "shape_pt_lon"), 64)
		seq, seqErr := strconv.Atoi(t.field(row, "shape_pt_sequence"))
		if latErr != nil || lonErr != nil || seqErr != nil {
			continue
		}

		dataset.Shapes[id] = append(dataset.Shapes[id], ShapePoint{
			Lat: lat, Lon: lon, Sequence: seq,
		})
	}
	return nil
}

func parseAgency(f *zip.File, dataset *Dataset) error {
	t, err := readTable(f)
	if err != nil {
		return err
	}

	// The first agency's timezone governs the whole feed.
	for _, row := range t.rows {
		if tz := t.field(row, "agency_timezone"); tz != "" {
			if _, err := time.LoadLocation(tz); err == nil {
				dataset.Timezone = tz
			}
			break
		}
	}
	return nil
}
