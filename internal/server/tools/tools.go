// Package tools discovers plugin files in a directory and lets each one
// register tools with the dispatcher.
//
// A plugin is anything that resolves to a RegisterFunc. Script plugins
// (.risor, .star, .wasm) are compiled with go-polyscript and register a single
// tool named after the file. Go plugins (.so) export a Register function or a
// Default value implementing Plugin and may register any number of tools.
package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atlanticdynamic/toolgate/internal/server/dispatch"
)

// Registration is handed to a plugin's entry point. The registry keeps no
// reference to it after the call returns.
type Registration struct {
	Dispatcher dispatch.Registrar
	ToolID     string
	Logger     *slog.Logger
}

// RegisterFunc is the plugin entry point.
type RegisterFunc func(ctx context.Context, reg Registration) error

// Register lets a RegisterFunc satisfy Plugin.
func (f RegisterFunc) Register(ctx context.Context, reg Registration) error {
	return f(ctx, reg)
}

// Plugin is an object exposing an entry point.
type Plugin interface {
	Register(ctx context.Context, reg Registration) error
}

// Target is what plugins register against; *dispatch.Dispatcher satisfies it.
type Target interface {
	Registrar(owner string) dispatch.Registrar
	RemoveOwner(owner string) []string
}

// Resolve converts an exported plugin symbol to its entry point. Accepted
// shapes are a bare function, a Plugin value, or pointers to either, which is
// how plugin.Lookup returns exported variables.
func Resolve(sym any) (RegisterFunc, error) {
	switch v := sym.(type) {
	case nil:
		return nil, ErrNoEntryPoint
	case RegisterFunc:
		if v == nil {
			return nil, ErrNoEntryPoint
		}
		return v, nil
	case func(context.Context, Registration) error:
		if v == nil {
			return nil, ErrNoEntryPoint
		}
		return v, nil
	case *RegisterFunc:
		if v == nil {
			return nil, ErrNoEntryPoint
		}
		return Resolve(*v)
	case *func(context.Context, Registration) error:
		if v == nil {
			return nil, ErrNoEntryPoint
		}
		return Resolve(*v)
	case *Plugin:
		if v == nil {
			return nil, ErrNoEntryPoint
		}
		return Resolve(*v)
	case Plugin:
		return v.Register, nil
	default:
		return nil, fmt.Errorf("%w: unsupported entry point type %T", ErrNoEntryPoint, sym)
	}
}

// Loader turns a plugin file into an entry point.
type Loader interface {
	// Extensions lists the file extensions handled, including the dot.
	Extensions() []string
	Load(ctx context.Context, path string) (RegisterFunc, error)
}
