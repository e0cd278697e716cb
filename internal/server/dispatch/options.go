package dispatch

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type options struct {
	middleware []mcp.Middleware
}

// Option configures a Dispatcher.
type Option func(*Dispatcher, *options)

// WithLogHandler sets the log handler.
func WithLogHandler(h slog.Handler) Option {
	return func(d *Dispatcher, _ *options) {
		if h != nil {
			d.logger = slog.New(h)
		}
	}
}

// WithMiddleware installs receiving middleware on the MCP server, outside the
// panic recovery layer.
func WithMiddleware(mw ...mcp.Middleware) Option {
	return func(_ *Dispatcher, o *options) {
		o.middleware = append(o.middleware, mw...)
	}
}
