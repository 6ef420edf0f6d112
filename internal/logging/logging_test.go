package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, FormatJSON, "info")

	logger.Info("fetch completed", "host", "example.com", "size_bytes", 12)
	logger.Debug("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "fetch completed", entry["msg"])
	assert.Equal(t, "example.com", entry["host"])
	assert.InDelta(t, 12, entry["size_bytes"], 0)
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, FormatText, "debug")

	logger.Debug("starting", "port", "8080")

	out := buf.String()
	assert.Contains(t, out, "starting")
	assert.Contains(t, out, "port=8080")
	assert.NotContains(t, out, "\033[", "non-terminal writers get no color codes")
}

func TestNew_AutoFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, FormatAuto, "").Info("hello")

	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}
