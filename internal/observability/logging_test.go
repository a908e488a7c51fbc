package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/aqlab/aqpipe/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerTo_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, &config.Config{LogLevel: "info", LogFormat: "json"})

	logger.Info("matrix prepared", "n_locations", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "matrix prepared", entry["msg"])
	assert.Equal(t, float64(3), entry["n_locations"])
}

func TestNewLoggerTo_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, &config.Config{LogLevel: "warn", LogFormat: "text"})

	logger.Info("suppressed")
	assert.Empty(t, buf.String())

	logger.Warn("emitted")
	assert.Contains(t, buf.String(), "emitted")
}

func TestParseLevel_UnknownDefaultsToInfo(t *testing.T) {
	assert.Equal(t, parseLevel("info"), parseLevel("bogus"))
}
