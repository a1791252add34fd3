package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestInitWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "debug", "json")
	t.Cleanup(func() { InitWriter(&bytes.Buffer{}, "info", "text") })

	Component("backend.registry").Debug("switched", "backend", "openal")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "switched", entry["msg"])
	assert.Equal(t, "backend.registry", entry["component"])
	assert.Equal(t, "openal", entry["backend"])
}

func TestInitWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "warn", "text")
	t.Cleanup(func() { InitWriter(&bytes.Buffer{}, "info", "text") })

	Info("hidden")
	Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
