package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRejectsBadSettings(t *testing.T) {
	_, err := New("loud", "console", "")
	assert.ErrorContains(t, err, "invalid log level")

	_, err = New("info", "xml", "")
	assert.ErrorContains(t, err, "invalid log format")
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claimassess.log")
	logger, err := New("debug", "json", path)
	require.NoError(t, err)

	logger.Debug("analysis completed", zap.Float64("repair_estimate", 2000))
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(raw))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "analysis completed", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
	assert.EqualValues(t, 2000, entry["repair_estimate"])
}

func TestLevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claimassess.log")
	logger, err := New("warn", "console", path)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hidden")
	assert.Contains(t, string(raw), "shown")
	assert.Contains(t, string(raw), "WARN")
}

func TestForTerminal(t *testing.T) {
	logger, err := ForTerminal("info", "console", "")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.ErrorLevel), "no-op without a file")

	path := filepath.Join(t.TempDir(), "tui.log")
	logger, err = ForTerminal("info", "json", path)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
}
