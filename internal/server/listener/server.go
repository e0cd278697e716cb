// Package listener is the HTTP front end: one route at "/" with the method
// router and middleware chain in front of the dispatcher, served by a
// go-supervisor runnable.
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robbyt/go-supervisor/runnables/httpserver"
	"github.com/robbyt/go-supervisor/supervisor"
)

var (
	_ supervisor.Runnable  = (*Server)(nil)
	_ supervisor.Stateable = (*Server)(nil)
)

// Timeouts for the HTTP server. Zero keeps the go-supervisor default.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
	Drain time.Duration
}

// runner is implemented by httpserver.Runner
type runner interface {
	Run(ctx context.Context) error
	Stop()
	GetState() string
	IsReady() bool
	GetStateChan(ctx context.Context) <-chan string
}

// Server owns the listening socket.
type Server struct {
	address  string
	routes   []httpserver.Route
	timeouts Timeouts
	runner   runner
	logger   *slog.Logger
	mu       sync.Mutex
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogHandler sets the log handler.
func WithServerLogHandler(h slog.Handler) ServerOption {
	return func(s *Server) {
		if h != nil {
			s.logger = slog.New(h)
		}
	}
}

// WithTimeouts sets the HTTP server timeouts.
func WithTimeouts(t Timeouts) ServerOption {
	return func(s *Server) {
		s.timeouts = t
	}
}

// NewServer creates a Server listening on address.
func NewServer(address string, routes []httpserver.Route, opts ...ServerOption) (*Server, error) {
	s := &Server{
		address: address,
		routes:  routes,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithGroup("listener").With("address", address)

	r, err := httpserver.NewRunner(httpserver.WithConfigCallback(s.buildConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP server runner: %w", err)
	}
	s.runner = r
	return s, nil
}

func (s *Server) buildConfig() (*httpserver.Config, error) {
	s.mu.Lock()
	address := s.address
	routes := make([]httpserver.Route, len(s.routes))
	copy(routes, s.routes)
	t := s.timeouts
	s.mu.Unlock()

	var options []httpserver.ConfigOption
	if t.Read > 0 {
		options = append(options, httpserver.WithReadTimeout(t.Read))
	}
	if t.Write > 0 {
		options = append(options, httpserver.WithWriteTimeout(t.Write))
	}
	if t.Idle > 0 {
		options = append(options, httpserver.WithIdleTimeout(t.Idle))
	}
	if t.Drain > 0 {
		options = append(options, httpserver.WithDrainTimeout(t.Drain))
	}

	cfg, err := httpserver.NewConfig(address, routes, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP server config: %w", err)
	}
	return cfg, nil
}

// String implements fmt.Stringer
func (s *Server) String() string {
	return fmt.Sprintf("Listener[%s]", s.address)
}

// Run starts serving and blocks until ctx is done or the server fails.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting HTTP listener", "routes", len(s.routes))
	return s.runner.Run(ctx)
}

// Stop shuts the server down.
func (s *Server) Stop() {
	s.logger.Info("Stopping HTTP listener")
	s.runner.Stop()
}

// GetState implements supervisor.Stateable
func (s *Server) GetState() string {
	if s.runner == nil {
		return "unknown"
	}
	return s.runner.GetState()
}

// IsRunning reports whether the runner is serving.
func (s *Server) IsRunning() bool {
	if s.runner == nil {
		return false
	}
	return s.runner.IsReady()
}

// GetStateChan implements supervisor.Stateable
func (s *Server) GetStateChan(ctx context.Context) <-chan string {
	if s.runner == nil {
		ch := make(chan string)
		go func() {
			<-ctx.Done()
			close(ch)
		}()
		return ch
	}
	return s.runner.GetStateChan(ctx)
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.address
}
