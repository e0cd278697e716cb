package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/atlanticdynamic/toolgate/internal/server/auth"
	"github.com/atlanticdynamic/toolgate/internal/server/listener/middleware/authn"
	"github.com/atlanticdynamic/toolgate/internal/server/listener/middleware/capture"
	"github.com/atlanticdynamic/toolgate/internal/server/listener/middleware/jsonbody"
	"github.com/atlanticdynamic/toolgate/internal/server/listener/respond"
	"github.com/atlanticdynamic/toolgate/internal/server/toolctx"
	"github.com/robbyt/go-supervisor/runnables/httpserver"
)

// RootPath is the only path served.
const RootPath = "/"

const allowedMethods = "GET, POST"

var (
	ErrMissingDispatcher    = errors.New("dispatcher is required")
	ErrMissingAuthenticator = errors.New("authenticator is required")
)

// Dispatcher runs one protocol request. It is implemented by dispatch.Dispatcher.
type Dispatcher interface {
	Handle(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// RouteConfig holds everything the root route needs.
type RouteConfig struct {
	// Name appears in the liveness response.
	Name          string
	Dispatcher    Dispatcher
	Authenticator authn.Authorizer
	// Bridge moves the bearer token into the dispatch context. A nil Bridge
	// gets a default one without the legacy slot.
	Bridge *toolctx.Bridge
	// MaxRequestBytes bounds the request body. Zero keeps the default.
	MaxRequestBytes int64
	// MaxCaptureSize bounds the bodies in the request log. Zero keeps the default.
	MaxCaptureSize int
	LogHandler     slog.Handler
}

// NewRoute builds the root route. Middleware runs in a fixed order: method
// router, JSON body check, capture, authentication, then dispatch.
func NewRoute(cfg RouteConfig) (*httpserver.Route, error) {
	if cfg.Dispatcher == nil {
		return nil, ErrMissingDispatcher
	}
	if cfg.Authenticator == nil {
		return nil, ErrMissingAuthenticator
	}

	handler := cfg.LogHandler
	if handler == nil {
		handler = slog.Default().Handler()
	}
	bridge := cfg.Bridge
	if bridge == nil {
		bridge = toolctx.NewBridge(toolctx.WithLogHandler(handler))
	}
	name := cfg.Name
	if name == "" {
		name = "toolgate"
	}

	route, err := httpserver.NewRouteFromHandlerFunc(
		"root",
		RootPath,
		dispatchHandler(cfg.Dispatcher, bridge, slog.New(handler).WithGroup("dispatch")),
		methodRouter(name),
		jsonbody.New(jsonbody.WithMaxBytes(cfg.MaxRequestBytes), jsonbody.WithLogHandler(handler)).Handler(),
		capture.New(capture.WithMaxBodySize(cfg.MaxCaptureSize), capture.WithLogHandler(handler)).Handler(),
		authn.New(cfg.Authenticator, handler).Handler(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create root route: %w", err)
	}
	return route, nil
}

// methodRouter answers liveness probes and rejects everything except POST
// to the root path. Every answered request aborts the chain. A GET asking for an event stream is a protocol request
// and goes down the chain like a POST.
func methodRouter(name string) httpserver.HandlerFunc {
	body := []byte(name + " is running")
	return func(rp *httpserver.RequestProcessor) {
		r := rp.Request()
		w := rp.Writer()

		if r.URL.Path != RootPath {
			respond.Error(w, http.StatusNotFound, "Not found", "")
			rp.Abort()
			return
		}

		switch {
		case r.Method == http.MethodGet && acceptsEventStream(r):
			rp.Next()
		case r.Method == http.MethodGet:
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(body)
			rp.Abort()
		case r.Method == http.MethodPost:
			rp.Next()
		default:
			w.Header().Set("Allow", allowedMethods)
			respond.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
			rp.Abort()
		}
	}
}

func acceptsEventStream(r *http.Request) bool {
	for _, v := range r.Header.Values("Accept") {
		if strings.Contains(v, "text/event-stream") {
			return true
		}
	}
	return false
}

// written is implemented by httpserver.ResponseWriter
type written interface {
	Written() bool
}

func dispatchHandler(d Dispatcher, bridge *toolctx.Bridge, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, _ := auth.ExtractBearer(r.Header)

		err := d.Handle(bridge.Bind(r.Context(), token), w, r)
		if err == nil {
			return
		}

		if ww, ok := w.(written); ok && ww.Written() {
			logger.Error("Dispatch failed after the response was written", "error", err)
			return
		}

		logger.Error("Dispatch failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}
