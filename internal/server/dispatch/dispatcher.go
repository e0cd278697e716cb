// Package dispatch wraps the MCP server that routes tools/call requests to
// registered tool handlers.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Registrar is the registration view handed to plugins.
type Registrar interface {
	AddTool(tool *mcp.Tool, handler mcp.ToolHandler)
}

// ToolInfo describes a registered tool and the plugin that owns it.
type ToolInfo struct {
	Name        string
	Description string
	Owner       string
}

// Dispatcher is the single MCP server shared by every request. Registration
// happens before serving starts; Handle is safe for concurrent use.
type Dispatcher struct {
	server  *mcp.Server
	handler http.Handler
	logger  *slog.Logger

	mu    sync.RWMutex
	tools map[string]ToolInfo
}

// New creates a Dispatcher advertising the given name and version.
func New(name, version string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger: slog.Default(),
		tools:  make(map[string]ToolInfo),
	}
	o := &options{}
	for _, opt := range opts {
		opt(d, o)
	}
	d.logger = d.logger.WithGroup("dispatch")

	d.server = mcp.NewServer(
		&mcp.Implementation{Name: name, Version: version},
		&mcp.ServerOptions{Logger: d.logger},
	)
	// The first middleware added is the innermost, so recovery wraps the
	// method handler directly and sees panics from tool code.
	d.server.AddReceivingMiddleware(d.recoverMiddleware())
	d.server.AddReceivingMiddleware(o.middleware...)

	d.handler = mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return d.server },
		&mcp.StreamableHTTPOptions{Stateless: true, JSONResponse: true},
	)
	return d
}

// Server returns the underlying MCP server.
func (d *Dispatcher) Server() *mcp.Server {
	return d.server
}

// AddTool registers tool on behalf of owner. A tool without an input schema
// accepts any object. Re-registering a name replaces the earlier handler and
// logs a warning naming both owners.
func (d *Dispatcher) AddTool(owner string, tool *mcp.Tool, handler mcp.ToolHandler) {
	if tool.InputSchema == nil {
		tool.InputSchema = &jsonschema.Schema{Type: "object"}
	}

	d.mu.Lock()
	if prev, exists := d.tools[tool.Name]; exists {
		d.logger.Warn("Tool registered more than once; the later registration wins",
			"tool", tool.Name,
			"previous_owner", prev.Owner,
			"owner", owner,
		)
	}
	d.tools[tool.Name] = ToolInfo{Name: tool.Name, Description: tool.Description, Owner: owner}
	d.mu.Unlock()

	d.server.AddTool(tool, handler)
	d.logger.Debug("Tool registered", "tool", tool.Name, "owner", owner)
}

// Registrar returns a view that records owner against every tool it adds.
func (d *Dispatcher) Registrar(owner string) Registrar {
	return ownedRegistrar{d: d, owner: owner}
}

type ownedRegistrar struct {
	d     *Dispatcher
	owner string
}

func (r ownedRegistrar) AddTool(tool *mcp.Tool, handler mcp.ToolHandler) {
	r.d.AddTool(r.owner, tool, handler)
}

// RemoveOwner unregisters every tool currently owned by owner and returns
// their names, sorted. A tool that owner took over from another plugin is
// removed as well; the earlier handler is not restored.
func (d *Dispatcher) RemoveOwner(owner string) []string {
	d.mu.Lock()
	var names []string
	for name, info := range d.tools {
		if info.Owner == owner {
			names = append(names, name)
			delete(d.tools, name)
		}
	}
	d.mu.Unlock()

	if len(names) == 0 {
		return nil
	}
	slices.Sort(names)
	d.server.RemoveTools(names...)
	d.logger.Debug("Tools removed", "owner", owner, "tools", names)
	return names
}

// Tools lists registered tools sorted by name.
func (d *Dispatcher) Tools() []ToolInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]ToolInfo, 0, len(d.tools))
	for _, info := range d.tools {
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b ToolInfo) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Handle serves one MCP request with ctx as the request context. A panic
// escaping the MCP handler is returned as an error wrapping ErrDispatchPanic.
func (d *Dispatcher) Handle(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("Dispatcher panicked", "panic", rec, "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrDispatchPanic, rec)
		}
	}()

	d.handler.ServeHTTP(w, r.WithContext(ctx))
	return nil
}

func (d *Dispatcher) recoverMiddleware() mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (res mcp.Result, err error) {
			defer func() {
				if rec := recover(); rec != nil {
					d.logger.Error("Method handler panicked",
						"method", method,
						"panic", rec,
						"stack", string(debug.Stack()),
					)
					res, err = nil, fmt.Errorf("%w: %v", ErrHandlerPanic, rec)
				}
			}()
			return next(ctx, method, req)
		}
	}
}
