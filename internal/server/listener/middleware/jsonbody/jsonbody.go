// Package jsonbody rejects requests whose body is not well-formed JSON.
package jsonbody

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/atlanticdynamic/toolgate/internal/server/listener/respond"
	"github.com/robbyt/go-supervisor/runnables/httpserver"
)

// DefaultMaxBytes bounds the request body.
const DefaultMaxBytes int64 = 4 << 20

const (
	msgInvalidJSON = "Invalid JSON"
	msgTooLarge    = "Request body too large"
)

// Middleware reads the whole body, checks it, and puts it back for the rest
// of the chain. An empty body passes through untouched.
type Middleware struct {
	logger   *slog.Logger
	maxBytes int64
}

// Option configures a Middleware.
type Option func(*Middleware)

// WithLogHandler sets the log handler.
func WithLogHandler(h slog.Handler) Option {
	return func(m *Middleware) {
		if h != nil {
			m.logger = slog.New(h)
		}
	}
}

// WithMaxBytes sets the body size limit.
func WithMaxBytes(n int64) Option {
	return func(m *Middleware) {
		if n > 0 {
			m.maxBytes = n
		}
	}
}

// New returns a JSON body middleware.
func New(opts ...Option) *Middleware {
	m := &Middleware{
		logger:   slog.Default(),
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.WithGroup("jsonbody")
	return m
}

// Handler returns the middleware function.
func (m *Middleware) Handler() httpserver.HandlerFunc {
	return func(rp *httpserver.RequestProcessor) {
		r := rp.Request()
		w := rp.Writer()

		if r.Body == nil || r.Body == http.NoBody {
			rp.Next()
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, m.maxBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				m.logger.Warn("Request body too large", "limit", m.maxBytes)
				respond.Error(w, http.StatusRequestEntityTooLarge, msgTooLarge, "")
				rp.Abort()
				return
			}
			m.logger.Warn("Failed to read request body", "error", err)
			respond.Error(w, http.StatusBadRequest, "Failed to read request body", "")
			rp.Abort()
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		if len(bytes.TrimSpace(body)) > 0 && !json.Valid(body) {
			m.logger.Debug("Rejected malformed JSON body", "size", len(body))
			respond.Error(w, http.StatusNotAcceptable, msgInvalidJSON, "")
			rp.Abort()
			return
		}

		rp.Next()
	}
}
