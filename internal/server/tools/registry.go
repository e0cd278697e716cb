package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
)

// Registry populates a Target from plugin files and built-in plugins.
type Registry struct {
	loaders map[string]Loader
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLoader adds a loader for its extensions, replacing any earlier loader
// for the same extension.
func WithLoader(l Loader) Option {
	return func(r *Registry) {
		for _, ext := range l.Extensions() {
			r.loaders[strings.ToLower(ext)] = l
		}
	}
}

// WithLogHandler sets the log handler.
func WithLogHandler(h slog.Handler) Option {
	return func(r *Registry) {
		if h != nil {
			r.logger = slog.New(h)
		}
	}
}

// NewRegistry creates a Registry. Without WithLoader options no file is
// recognized as a plugin.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		loaders: make(map[string]Loader),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithGroup("tools")
	return r
}

// Load registers every plugin file in dir, non-recursively and in lexical
// order. Hidden entries and files without a known extension are skipped. A
// plugin that fails to load, fails to register or panics is recorded in the
// result and does not stop the others. A missing directory logs a warning and
// yields an empty result.
func (r *Registry) Load(ctx context.Context, dir string, target Target) (*Result, error) {
	res := &Result{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("Tools directory does not exist; no plugins loaded", "dir", dir)
			return res, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrReadDirectory, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") || entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(name))
		loader, ok := r.loaders[ext]
		if !ok {
			r.logger.Debug("Skipping file without a plugin loader", "file", name)
			continue
		}

		id := strings.TrimSuffix(name, filepath.Ext(name))
		path := filepath.Join(dir, name)

		fn, err := r.loadFile(ctx, loader, path)
		if err == nil {
			err = r.Register(ctx, id, fn, target)
		}
		res.record(id, err)
		if err != nil {
			r.logger.Error("Plugin failed", "plugin", id, "file", path, "error", err)
			continue
		}
		r.logger.Info("Plugin registered", "plugin", id, "file", path)
	}

	return res, nil
}

// LoadBuiltins registers the named plugins from catalog, in the given order.
func (r *Registry) LoadBuiltins(
	ctx context.Context,
	names []string,
	catalog map[string]RegisterFunc,
	target Target,
) *Result {
	res := &Result{}
	for _, name := range names {
		fn, ok := catalog[name]
		var err error
		if !ok {
			err = fmt.Errorf("%w: %q", ErrUnknownBuiltin, name)
		} else {
			err = r.Register(ctx, name, fn, target)
		}
		res.record(name, err)
		if err != nil {
			r.logger.Error("Builtin plugin failed", "plugin", name, "error", err)
			continue
		}
		r.logger.Info("Builtin plugin registered", "plugin", name)
	}
	return res
}

// Register invokes one entry point with a registrar scoped to id. Panics are
// returned as errors wrapping ErrPluginPanic. When the entry point fails, any
// tools it added before failing are removed again.
func (r *Registry) Register(ctx context.Context, id string, fn RegisterFunc, target Target) (err error) {
	if fn == nil {
		return ErrNoEntryPoint
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrPluginPanic, rec)
			r.logger.Debug("Plugin panic stack", "plugin", id, "stack", string(debug.Stack()))
		}
		if err != nil {
			if removed := target.RemoveOwner(id); len(removed) > 0 {
				r.logger.Warn("Removed tools of a failed plugin", "plugin", id, "tools", removed)
			}
		}
	}()

	return fn(ctx, Registration{
		Dispatcher: target.Registrar(id),
		ToolID:     id,
		Logger:     r.logger.With("plugin", id),
	})
}

func (r *Registry) loadFile(ctx context.Context, l Loader, path string) (fn RegisterFunc, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			fn, err = nil, fmt.Errorf("%w while loading: %v", ErrPluginPanic, rec)
		}
	}()
	return l.Load(ctx, path)
}
