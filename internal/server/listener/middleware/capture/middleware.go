// Package capture records request and response bodies for the request log.
package capture

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/atlanticdynamic/toolgate/internal/jsonsafe"
	"github.com/gofrs/uuid/v5"
	"github.com/robbyt/go-supervisor/runnables/httpserver"
)

const (
	// DefaultMaxBodySize bounds the bodies written into the log entry.
	DefaultMaxBodySize = 64 * 1024

	// RequestIDHeader carries the request ID on the request and the response.
	RequestIDHeader = "X-Request-Id"

	// UnserializableBody replaces a request body that cannot be logged as JSON.
	UnserializableBody = "[unserializable body]"

	truncatedSuffix = "...(truncated)"
)

// Middleware logs one entry per request with both bodies attached.
type Middleware struct {
	logger      *slog.Logger
	maxBodySize int
}

// Option configures a Middleware.
type Option func(*Middleware)

// WithLogHandler sets the handler for the request log.
func WithLogHandler(h slog.Handler) Option {
	return func(m *Middleware) {
		if h != nil {
			m.logger = slog.New(h)
		}
	}
}

// WithMaxBodySize bounds the logged bodies. Zero or less keeps the default.
func WithMaxBodySize(n int) Option {
	return func(m *Middleware) {
		if n > 0 {
			m.maxBodySize = n
		}
	}
}

// New returns a capture middleware.
func New(opts ...Option) *Middleware {
	m := &Middleware{
		logger:      slog.Default(),
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.WithGroup("http")
	return m
}

// Handler returns the middleware function.
func (m *Middleware) Handler() httpserver.HandlerFunc {
	return func(rp *httpserver.RequestProcessor) {
		r := rp.Request()
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.Must(uuid.NewV6()).String()
			r.Header.Set(RequestIDHeader, requestID)
		}

		requestBody, err := readBody(r)
		if err != nil {
			m.logger.Warn("Failed to read request body", "requestID", requestID, "error", err)
		}

		// swap in the capturing writer, and restore the original once the chain returns
		original := rp.Writer()
		original.Header().Set(RequestIDHeader, requestID)
		cw := NewWriter(r.Context(), original)
		rp.SetWriter(cw)

		rp.Next()

		rp.SetWriter(original)

		status := cw.Status()
		if status == 0 {
			status = http.StatusOK
		}

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.String("requestID", requestID),
			slog.String("remoteAddr", r.RemoteAddr),
			slog.String("requestBody", m.truncate(renderRequestBody(requestBody))),
			slog.String("responseBody", m.truncate(string(cw.Bytes()))),
		}
		m.logger.LogAttrs(r.Context(), levelFor(status), "HTTP request", attrs...)
	}
}

func (m *Middleware) truncate(s string) string {
	if len(s) <= m.maxBodySize {
		return s
	}
	return s[:m.maxBodySize] + truncatedSuffix
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// renderRequestBody re-encodes the body through jsonsafe so large integers
// log the way a client would see them.
func renderRequestBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return UnserializableBody
	}

	out, err := jsonsafe.Marshal(v)
	if err != nil {
		return UnserializableBody
	}
	return string(out)
}

// readBody drains r.Body and puts an identical reader back in its place.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	body, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, err
}
