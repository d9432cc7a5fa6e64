package restapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandlerOK(t *testing.T) {
	api := createTestApi(t)

	rr := serveApiAndRetrieveEndpoint(t, api, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, "ok", response.Status)
	assert.NotEmpty(t, response.LastUpdated)
}

func TestHealthHandlerNoManager(t *testing.T) {
	api := createTestApi(t)
	api.GtfsManager = nil

	rr := serveApiAndRetrieveEndpoint(t, api, "/healthz")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, "unavailable", response.Status)
}

func TestCurrentTimeHandler(t *testing.T) {
	api := createTestApi(t)

	rr := serveApiAndRetrieveEndpoint(t, api, "/v1/current-time")
	require.Equal(t, http.StatusOK, rr.Code)

	_, data := decodeEnvelope(t, rr.Body.Bytes())
	assert.Contains(t, data["readableTime"], "2025-06-16T07:55:00")
	assert.NotZero(t, data["time"])
}
