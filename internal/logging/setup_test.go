package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTextHandler(t *testing.T) {
	tests := []struct {
		name        string
		logLevel    string
		debugShown  bool
		infoShown   bool
		errorShown  bool
		hasTimeHint bool
	}{
		{name: "trace level", logLevel: "trace", debugShown: true, infoShown: true, errorShown: true, hasTimeHint: true},
		{name: "debug level", logLevel: "debug", debugShown: true, infoShown: true, errorShown: true, hasTimeHint: true},
		{name: "info level", logLevel: "info", infoShown: true, errorShown: true},
		{name: "warning level", logLevel: "warning", errorShown: true},
		{name: "error level", logLevel: "ERROR", errorShown: true},
		{name: "unknown falls back to info", logLevel: "verbose", infoShown: true, errorShown: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := slog.New(NewTextHandler(tt.logLevel, buf))

			logger.Debug("debug message")
			logger.Info("info message", "key", "value")
			logger.Error("error message")

			output := buf.String()
			assert.Equal(t, tt.debugShown, strings.Contains(output, "debug message"))
			assert.Equal(t, tt.infoShown, strings.Contains(output, "info message"))
			assert.Equal(t, tt.errorShown, strings.Contains(output, "error message"))
			if tt.hasTimeHint {
				assert.Contains(t, output, ":")
			}
		})
	}
}

func TestNewJSONHandler(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := slog.New(NewJSONHandler("warn", buf))

	logger.Info("hidden")
	logger.Warn("shown", "tool", "echo")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "echo", entry["tool"])
}

func TestNewHandler(t *testing.T) {
	t.Parallel()

	t.Run("json to file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "logs", "toolgate.log")

		handler, closer, err := NewHandler(FormatJSON, "info", path)
		require.NoError(t, err)
		require.NotNil(t, handler)
		t.Cleanup(func() { _ = closer.Close() })

		slog.New(handler).Info("written to file")
		assert.FileExists(t, path)
	})

	t.Run("text to stderr", func(t *testing.T) {
		t.Parallel()
		handler, closer, err := NewHandler(FormatText, "debug", "stderr")
		require.NoError(t, err)
		assert.NotNil(t, handler)
		assert.NoError(t, closer.Close())
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()
		_, _, err := NewHandler(Format("xml"), "info", "stdout")
		require.ErrorIs(t, err, ErrUnknownFormat)
	})

	t.Run("bad output", func(t *testing.T) {
		t.Parallel()
		_, _, err := NewHandler(FormatText, "info", "redis://localhost:6379")
		require.Error(t, err)
	})
}

func TestValidLevel(t *testing.T) {
	t.Parallel()

	for _, lvl := range []string{"", "trace", "DEBUG", "info", "warn", "warning", "error"} {
		assert.True(t, ValidLevel(lvl), lvl)
	}
	assert.False(t, ValidLevel("loud"))
}
