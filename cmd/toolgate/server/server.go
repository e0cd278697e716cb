// Package server assembles the toolgate components from a Config and runs
// them under a supervisor.
package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atlanticdynamic/toolgate/internal/config"
	"github.com/atlanticdynamic/toolgate/internal/server/auth"
	"github.com/atlanticdynamic/toolgate/internal/server/dispatch"
	"github.com/atlanticdynamic/toolgate/internal/server/listener"
	"github.com/atlanticdynamic/toolgate/internal/server/toolctx"
	"github.com/atlanticdynamic/toolgate/internal/server/tools"
	"github.com/atlanticdynamic/toolgate/internal/server/tools/builtin"
	"github.com/robbyt/go-supervisor/runnables/httpserver"
	"github.com/robbyt/go-supervisor/supervisor"
)

type options struct {
	logHandler   slog.Handler
	authCallback auth.Callback
	catalog      map[string]tools.RegisterFunc
}

// Option configures Build and Run.
type Option func(*options)

// WithLogHandler sets the handler shared by every component.
func WithLogHandler(h slog.Handler) Option {
	return func(o *options) {
		if h != nil {
			o.logHandler = h
		}
	}
}

// WithAuthCallback installs a programmatic authentication callback. It takes
// precedence over both the JWT section and the static token in the config.
func WithAuthCallback(cb auth.Callback) Option {
	return func(o *options) {
		o.authCallback = cb
	}
}

// WithBuiltinCatalog replaces the catalog that config builtin names are
// resolved against.
func WithBuiltinCatalog(catalog map[string]tools.RegisterFunc) Option {
	return func(o *options) {
		o.catalog = catalog
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		logHandler: slog.Default().Handler(),
		catalog:    builtin.Catalog(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Gateway holds the assembled components.
type Gateway struct {
	Dispatcher    *dispatch.Dispatcher
	Authenticator *auth.Authenticator
	Listener      *listener.Server
	Route         *httpserver.Route
	Tools         *tools.Result
}

// Build creates every component and registers the plugins. Nothing listens
// until the Listener runs.
func Build(ctx context.Context, cfg *config.Config, opts ...Option) (*Gateway, error) {
	o := newOptions(opts)
	logger := slog.New(o.logHandler)

	strategy, err := selectStrategy(cfg.Auth, o.authCallback, logger)
	if err != nil {
		return nil, err
	}
	if strategy == nil {
		logger.Warn("No authentication is configured; every tool call will be rejected")
	}
	authenticator := auth.New(strategy,
		auth.WithCallbackTimeout(cfg.Auth.CallbackTimeout.AsDuration()),
		auth.WithLogHandler(o.logHandler),
	)
	logger.Info("Authentication configured", "strategy", auth.Describe(strategy))

	bridge := toolctx.NewBridge(
		toolctx.WithLegacyGlobal(cfg.LegacyGlobalToken),
		toolctx.WithLogHandler(o.logHandler),
	)

	name, version := cfg.ResolveIdentity()
	d := dispatch.New(name, version,
		dispatch.WithLogHandler(o.logHandler),
		dispatch.WithMiddleware(bridge.Middleware()),
	)

	result, err := LoadTools(ctx, cfg, d, o.catalog, o.logHandler)
	if err != nil {
		return nil, err
	}

	route, err := listener.NewRoute(listener.RouteConfig{
		Name:            name,
		Dispatcher:      d,
		Authenticator:   authenticator,
		Bridge:          bridge,
		MaxRequestBytes: cfg.HTTP.MaxRequestBytes,
		MaxCaptureSize:  cfg.Capture.MaxBodySize,
		LogHandler:      o.logHandler,
	})
	if err != nil {
		return nil, err
	}

	srv, err := listener.NewServer(cfg.Listen, []httpserver.Route{*route},
		listener.WithServerLogHandler(o.logHandler),
		listener.WithTimeouts(listener.Timeouts{
			Read:  cfg.HTTP.ReadTimeout.AsDuration(),
			Write: cfg.HTTP.WriteTimeout.AsDuration(),
			Idle:  cfg.HTTP.IdleTimeout.AsDuration(),
			Drain: cfg.HTTP.DrainTimeout.AsDuration(),
		}),
	)
	if err != nil {
		return nil, err
	}

	return &Gateway{
		Dispatcher:    d,
		Authenticator: authenticator,
		Listener:      srv,
		Route:         route,
		Tools:         result,
	}, nil
}

// LoadTools registers the configured builtins, then every plugin file in the
// tools directory.
func LoadTools(
	ctx context.Context,
	cfg *config.Config,
	target tools.Target,
	catalog map[string]tools.RegisterFunc,
	logHandler slog.Handler,
) (*tools.Result, error) {
	registry := tools.NewRegistry(
		tools.WithLogHandler(logHandler),
		tools.WithLoader(tools.NewScriptLoader(
			tools.WithScriptTimeout(cfg.Scripts.Timeout.AsDuration()),
			tools.WithScriptLogHandler(logHandler),
		)),
		tools.WithLoader(tools.GoPluginLoader{}),
	)

	result := registry.LoadBuiltins(ctx, cfg.BuiltinTools, catalog, target)

	fromDir, err := registry.Load(ctx, cfg.ToolsDirectory, target)
	if err != nil {
		return nil, fmt.Errorf("failed to load tools: %w", err)
	}
	result.Merge(fromDir)

	slog.New(logHandler).Info("Tools loaded",
		"registered", result.Registered,
		"failed", len(result.Failures),
	)
	return result, nil
}

func selectStrategy(cfg config.Auth, programmatic auth.Callback, logger *slog.Logger) (auth.Strategy, error) {
	callback := programmatic
	if cfg.JWT != nil {
		if callback != nil {
			logger.Warn("An auth callback was supplied programmatically; the JWT configuration is ignored")
		} else {
			cb, err := auth.JWTCallback([]byte(cfg.JWT.Secret), cfg.JWT.Issuer, cfg.JWT.Audience)
			if err != nil {
				return nil, fmt.Errorf("failed to configure JWT authentication: %w", err)
			}
			callback = cb
		}
	}
	return auth.SelectStrategy(cfg.Token, callback, logger), nil
}

// Run builds the gateway and serves until ctx is canceled.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) error {
	o := newOptions(opts)

	gw, err := Build(ctx, cfg, opts...)
	if err != nil {
		return err
	}

	super, err := supervisor.New(
		supervisor.WithContext(ctx),
		supervisor.WithLogHandler(o.logHandler),
		supervisor.WithRunnables(gw.Listener),
	)
	if err != nil {
		return fmt.Errorf("failed to create supervisor: %w", err)
	}
	if err := super.Run(); err != nil {
		return fmt.Errorf("failed to run server: %w", err)
	}

	slog.New(o.logHandler).Info("Server shutdown complete")
	return nil
}
