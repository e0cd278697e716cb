// Package logging builds the slog handlers shared by every toolgate component.
//
// Text output goes through charmbracelet/log, JSON output through the standard
// slog JSON handler. Both accept the same level names, including "trace", which
// enables debug output together with caller reporting.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/atlanticdynamic/toolgate/internal/logging/writers"
	"github.com/charmbracelet/log"
)

// Format selects the handler implementation.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// levelSpec is the parsed form of a level name.
type levelSpec struct {
	level     slog.Level
	caller    bool
	timestamp bool
}

func parseLevel(logLevel string) levelSpec {
	switch strings.ToLower(logLevel) {
	case "trace":
		return levelSpec{level: slog.LevelDebug, caller: true, timestamp: true}
	case "debug":
		return levelSpec{level: slog.LevelDebug, timestamp: true}
	case "warn", "warning":
		return levelSpec{level: slog.LevelWarn}
	case "error":
		return levelSpec{level: slog.LevelError}
	default:
		return levelSpec{level: slog.LevelInfo}
	}
}

// ValidLevel reports whether logLevel is one of the accepted level names.
func ValidLevel(logLevel string) bool {
	switch strings.ToLower(logLevel) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// NewTextHandler returns a charmbracelet/log handler writing to w (stderr when nil).
func NewTextHandler(logLevel string, w io.Writer) slog.Handler {
	if w == nil {
		w = os.Stderr
	}

	spec := parseLevel(logLevel)
	lvl := log.InfoLevel
	switch spec.level {
	case slog.LevelDebug:
		lvl = log.DebugLevel
	case slog.LevelWarn:
		lvl = log.WarnLevel
	case slog.LevelError:
		lvl = log.ErrorLevel
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: spec.timestamp,
		ReportCaller:    spec.caller,
		Level:           lvl,
	})
}

// NewJSONHandler returns a slog JSON handler writing to w (stdout when nil).
func NewJSONHandler(logLevel string, w io.Writer) slog.Handler {
	if w == nil {
		w = os.Stdout
	}

	spec := parseLevel(logLevel)
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     spec.level,
		AddSource: spec.caller,
	})
}

// NewHandler builds a handler for the given format, level and output target.
// The returned closer releases file outputs and is a no-op for stdio.
func NewHandler(format Format, logLevel, output string) (slog.Handler, io.Closer, error) {
	w, err := writers.Open(output)
	if err != nil {
		return nil, nil, fmt.Errorf("log output: %w", err)
	}

	switch format {
	case FormatJSON:
		return NewJSONHandler(logLevel, w), w, nil
	case FormatText, "":
		return NewTextHandler(logLevel, w), w, nil
	default:
		_ = w.Close()
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// SetupLogger installs a text handler at the given level as the slog default.
func SetupLogger(logLevel string) {
	slog.SetDefault(slog.New(NewTextHandler(logLevel, nil)))
}
