package logger

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

func TestNew_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "showcase-dl.log")

	log, err := New(Config{Level: "info", Format: "json", OutputPath: path})
	require.NoError(t, err)
	log.Debug("hidden")
	log.Info("Video registered", zap.String("url", "https://player.example.com/video/1"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Video registered", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "https://player.example.com/video/1", entry["url"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_ConsoleAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "showcase-dl.log")
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o644))

	log, err := New(Config{Level: "error", Format: "console", OutputPath: path})
	require.NoError(t, err)
	log.Warn("hidden")
	log.Error("Download failed")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, "previous run\n"))
	assert.Contains(t, content, "ERROR")
	assert.Contains(t, content, "Download failed")
	assert.NotContains(t, content, "hidden")
	assert.NotContains(t, content, "\x1b[")
}

func TestNew_InvalidLevelFallsBackToError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "showcase-dl.log")

	log, err := New(Config{Level: "chatty", Format: "console", OutputPath: path})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zap.WarnLevel))
	assert.True(t, log.Core().Enabled(zap.ErrorLevel))
}

func TestNew_UnwritablePath(t *testing.T) {
	_, err := New(Config{Level: "info", OutputPath: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Error(t, err)
}

func TestLevelForVerbosity(t *testing.T) {
	tests := []struct {
		base      string
		verbosity int
		expected  string
	}{
		{base: "error", verbosity: 0, expected: "error"},
		{base: "error", verbosity: 1, expected: "warn"},
		{base: "error", verbosity: 2, expected: "info"},
		{base: "error", verbosity: 3, expected: "debug"},
		{base: "error", verbosity: 9, expected: "debug"},
		{base: "info", verbosity: 1, expected: "debug"},
		{base: "unknown", verbosity: 1, expected: "warn"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, LevelForVerbosity(tt.base, tt.verbosity), "%s -v x%d", tt.base, tt.verbosity)
	}
}
