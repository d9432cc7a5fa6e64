package restapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestinationsPlanFromOrigin(t *testing.T) {
	api := createTestApi(t)

	rr := serveApiAndRetrieveEndpoint(t, api, "/v1/destinations/plan?origin=A")
	require.Equal(t, http.StatusOK, rr.Code)

	_, data := decodeEnvelope(t, rr.Body.Bytes())
	assert.Equal(t, "A", data["origin"])

	options := data["options"].([]any)
	require.NotEmpty(t, options)

	// The direct ride to B wins; its configured label comes through.
	best := options[0].(map[string]any)
	assert.Equal(t, "B", best["target"])
	assert.Equal(t, "Casa", data["destinationLabel"])
}

func TestDestinationsPlanFromCoordinates(t *testing.T) {
	api := createTestApi(t)

	// Right next to Intercambiador.
	rr := serveApiAndRetrieveEndpoint(t, api, "/v1/destinations/plan?lat=28.4637&lon=-16.2519")
	require.Equal(t, http.StatusOK, rr.Code)

	_, data := decodeEnvelope(t, rr.Body.Bytes())
	assert.Equal(t, "A", data["origin"])
	assert.Equal(t, "Intercambiador", data["originName"])
	assert.NotZero(t, data["originDistanceM"])

	options := data["options"].([]any)
	require.Len(t, options, 1)
}

func TestDestinationsPlanMissingParams(t *testing.T) {
	api := createTestApi(t)

	rr := serveApiAndRetrieveEndpoint(t, api, "/v1/destinations/plan")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDestinationsPlanUnknownOrigin(t *testing.T) {
	api := createTestApi(t)

	rr := serveApiAndRetrieveEndpoint(t, api, "/v1/destinations/plan?origin=ZZZ")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDestinationsPlanNoDestinationsConfigured(t *testing.T) {
	api := createTestApi(t)
	api.GtfsConfig.DestinationStopIDs = nil

	rr := serveApiAndRetrieveEndpoint(t, api, "/v1/destinations/plan?origin=A")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
