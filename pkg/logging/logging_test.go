package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for s, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := New(Config{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)
	defer closeFn()

	logger.Debug("hidden")
	logger.Info("attempt finished", "outcome", "Success")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "attempt finished", rec["msg"])
	assert.Equal(t, "Success", rec["outcome"])
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "biogate.log")

	var buf bytes.Buffer
	logger, closeFn, err := New(Config{Level: "debug", File: path}, &buf)
	require.NoError(t, err)

	logger.Debug("generating a new symmetric key", "alias", "MyKeyAlias")
	require.NoError(t, closeFn())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "generating a new symmetric key")
	assert.Equal(t, buf.String(), string(b))

	// Writes after close are dropped instead of reopening the file.
	logger.Info("late")
	b, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "late")
}

func TestNewUnknownFormat(t *testing.T) {
	_, _, err := New(Config{Level: "info", Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}
