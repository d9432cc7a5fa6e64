// test_helper.go contains shared fixtures for handler tests: a small
// two-line feed and a fully wired API instance with a mock clock.
package restapi

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"github.com/GTD-TFS/bus/internal/app"
	"github.com/GTD-TFS/bus/internal/appconf"
	"github.com/GTD-TFS/bus/internal/clock"
	"github.com/GTD-TFS/bus/internal/gtfs"
	"github.com/GTD-TFS/bus/internal/logging"
	"github.com/GTD-TFS/bus/internal/metrics"
	"github.com/GTD-TFS/bus/internal/planner"
)

func buildTestFeed(t *testing.T) string {
	t.Helper()

	files := map[string]string{
		"agency.txt": "agency_id,agency_name,agency_url,agency_timezone\n" +
			"1,Titsa,https://example.com,Atlantic/Canary\n",
		"routes.txt": "route_id,route_short_name\n" +
			"R14,014\n" +
			"R102,102\n",
		"trips.txt": "route_id,service_id,trip_id,trip_headsign,shape_id\n" +
			"R14,ALL,t1,La Laguna,shp14\n" +
			"R102,ALL,t2,Puerto,\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"t1,08:00:00,08:00:00,A,1\n" +
			"t1,08:10:00,08:11:00,T,2\n" +
			"t1,08:25:00,08:25:00,B,3\n" +
			"t2,08:20:00,08:20:00,T,1\n" +
			"t2,08:40:00,08:40:00,C,2\n",
		"stops.txt": "stop_id,stop_name,stop_lat,stop_lon\n" +
			"A,Intercambiador,28.4636,-16.2518\n" +
			"T,Ávila,28.4700,-16.3000\n" +
			"B,La Laguna,28.4850,-16.3200\n" +
			"C,Puerto,28.5000,-16.3500\n",
		"calendar.txt": "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
			"ALL,1,1,1,1,1,1,1,20200101,20301231\n",
		"shapes.txt": "shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence\n" +
			"shp14,28.4636,-16.2518,1\n" +
			"shp14,28.4850,-16.3200,2\n",
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "feed.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// createTestApi builds an API over the test feed with the clock fixed
// at Monday 2025-06-16 07:55 feed-local time.
func createTestApi(t *testing.T) *RestAPI {
	t.Helper()

	gtfsConfig := gtfs.Config{
		Sources:            []string{buildTestFeed(t)},
		DestinationStopIDs: []string{"B", "C"},
		DestinationLabels:  map[string]string{"B": "Casa"},
		Env:                appconf.Test,
	}

	manager, err := gtfs.InitManager(gtfsConfig)
	require.NoError(t, err)
	t.Cleanup(manager.Shutdown)

	mockClock := clock.NewMockClock(time.Date(2025, 6, 16, 7, 55, 0, 0, manager.Location()))
	manager.Clock = mockClock

	m := metrics.New()

	application := &app.Application{
		Config: appconf.Config{
			Env:     appconf.Test,
			ApiKeys: []string{"test"},
		},
		GtfsConfig:  gtfsConfig,
		Logger:      logging.NewStructuredLogger(io.Discard, slog.LevelError),
		GtfsManager: manager,
		Planner:     planner.New(planner.Config{}, m),
		Clock:       mockClock,
		Metrics:     m,
	}

	return &RestAPI{Application: application}
}

func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) *httptest.ResponseRecorder {
	t.Helper()

	mux := http.NewServeMux()
	api.SetRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, endpoint, nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}
