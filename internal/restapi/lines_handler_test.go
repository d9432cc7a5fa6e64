package restapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putLines(t *testing.T, api *RestAPI, body, key string) *httptest.ResponseRecorder {
	t.Helper()

	mux := http.NewServeMux()
	api.SetRoutes(mux)

	endpoint := "/v1/lines"
	if key != "" {
		endpoint += "?key=" + key
	}
	req := httptest.NewRequest(http.MethodPut, endpoint, strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestLinesHandler(t *testing.T) {
	api := createTestApi(t)

	rr := serveApiAndRetrieveEndpoint(t, api, "/v1/lines")
	require.Equal(t, http.StatusOK, rr.Code)

	_, data := decodeEnvelope(t, rr.Body.Bytes())
	available := data["available"].([]any)
	assert.Equal(t, []any{"014", "102"}, available)
	assert.Empty(t, data["active"])
}

func TestSetLinesHandler(t *testing.T) {
	api := createTestApi(t)

	rr := putLines(t, api, `{"lines":["014"]}`, "test")
	require.Equal(t, http.StatusOK, rr.Code)

	_, data := decodeEnvelope(t, rr.Body.Bytes())
	assert.Equal(t, []any{"014"}, data["active"])

	idx := api.GtfsManager.Index()
	assert.True(t, idx.InWorkingSet("t1"))
	assert.False(t, idx.InWorkingSet("t2"))
}

func TestSetLinesHandlerRequiresKey(t *testing.T) {
	api := createTestApi(t)

	rr := putLines(t, api, `{"lines":["014"]}`, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = putLines(t, api, `{"lines":["014"]}`, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSetLinesHandlerUnknownLine(t *testing.T) {
	api := createTestApi(t)

	rr := putLines(t, api, `{"lines":["999"]}`, "test")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSetLinesHandlerBadJSON(t *testing.T) {
	api := createTestApi(t)

	rr := putLines(t, api, `not json`, "test")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSetLinesHandlerClearFilter(t *testing.T) {
	api := createTestApi(t)

	rr := putLines(t, api, `{"lines":["014"]}`, "test")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = putLines(t, api, `{"lines":[]}`, "test")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, api.GtfsManager.Index().InWorkingSet("t2"))
}
