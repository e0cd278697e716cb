// Package toolctx carries the caller's bearer token from the HTTP front end
// into tool handlers running inside the dispatcher.
//
// The front end stores the token with WithBearerToken before dispatching.
// Middleware runs inside the dispatcher's own call graph and fills the token
// in from the request's transport metadata when the dispatcher did not keep
// the caller's context. Tool handlers read it with BearerToken.
package toolctx

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/atlanticdynamic/toolgate/internal/server/auth"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type bearerKey struct{}

// WithBearerToken returns a context carrying token. An empty token leaves ctx
// unchanged.
func WithBearerToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, bearerKey{}, token)
}

// BearerToken returns the token stored in ctx, if any.
func BearerToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerKey{}).(string)
	return token, ok && token != ""
}

// Bridge binds tokens to contexts and owns the optional legacy slot.
type Bridge struct {
	legacyGlobal bool
	logger       *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLegacyGlobal also records every bound token in the process-wide slot
// read by LastSeenBearerToken.
func WithLegacyGlobal(enabled bool) Option {
	return func(b *Bridge) {
		b.legacyGlobal = enabled
	}
}

// WithLogHandler sets the log handler.
func WithLogHandler(h slog.Handler) Option {
	return func(b *Bridge) {
		if h != nil {
			b.logger = slog.New(h)
		}
	}
}

// NewBridge creates a Bridge.
func NewBridge(opts ...Option) *Bridge {
	b := &Bridge{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.WithGroup("toolctx")
	if b.legacyGlobal {
		b.logger.Warn("Legacy global bearer token slot is enabled; concurrent requests can observe each other's tokens")
	}
	return b
}

// Bind stores token in ctx for the dispatcher call.
func (b *Bridge) Bind(ctx context.Context, token string) context.Context {
	if b.legacyGlobal && token != "" {
		lastSeen.Store(&token)
	}
	return WithBearerToken(ctx, token)
}

// Middleware returns dispatcher middleware that adds the bearer token to the
// handler context when it is missing. A token already in the context is kept.
func (b *Bridge) Middleware() mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if _, ok := BearerToken(ctx); ok {
				return next(ctx, method, req)
			}
			if token, ok := tokenFromRequest(req); ok {
				b.logger.Debug("Bearer token restored from request metadata", "method", method)
				ctx = WithBearerToken(ctx, token)
			}
			return next(ctx, method, req)
		}
	}
}

func tokenFromRequest(req mcp.Request) (string, bool) {
	if req == nil {
		return "", false
	}
	extra := req.GetExtra()
	if extra == nil || extra.Header == nil {
		return "", false
	}
	return auth.ExtractBearer(extra.Header)
}

var lastSeen atomic.Pointer[string]

// LastSeenBearerToken returns the most recent token bound by any Bridge with
// the legacy slot enabled. Under concurrent requests it may belong to another
// caller.
//
// Deprecated: read the token from the handler context with BearerToken.
func LastSeenBearerToken() string {
	if p := lastSeen.Load(); p != nil {
		return *p
	}
	return ""
}
