package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewStructuredLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelInfo)

	logger.Info("index_rebuilt", slog.Int("trips", 42))

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "index_rebuilt", entry["msg"])
	assert.Equal(t, float64(42), entry["trips"])
}

func TestLogErrorIncludesErrorField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelInfo)

	LogError(logger, "load failed", errors.New("missing stops.txt"), slog.String("component", "loader"))

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "load failed", entry["msg"])
	assert.Equal(t, "missing stops.txt", entry["error"])
	assert.Equal(t, "loader", entry["component"])
}

func TestLogErrorNilLoggerDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		LogError(nil, "ignored", errors.New("whatever"))
	})
}

func TestLogHTTPRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelInfo)

	LogHTTPRequest(logger, "GET", "/v1/plan", 200, 12.5)

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "http_request", entry["msg"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/v1/plan", entry["path"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, 12.5, entry["duration_ms"])
}

func TestLoggerContextRoundTrip(t *testing.T) {
	logger := NewStructuredLogger(&bytes.Buffer{}, slog.LevelInfo)
	ctx := WithLogger(context.Background(), logger)

	assert.Same(t, logger, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}
