package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/xgparam-core/internal/bridges/midi"
	"github.com/nerrad567/xgparam-core/internal/fanout"
	"github.com/nerrad567/xgparam-core/internal/infrastructure/config"
	"github.com/nerrad567/xgparam-core/internal/infrastructure/logging"
	"github.com/nerrad567/xgparam-core/internal/snapshot"
	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// BridgeMetrics reports MIDI bridge counters for the health endpoint.
type BridgeMetrics interface {
	GetMetrics() midi.Metrics
}

// FanoutStats reports event queue counters for the health endpoint.
type FanoutStats interface {
	Stats() fanout.Stats
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Logger    *logging.Logger
	Registry  *xgparam.Registry
	Snapshots snapshot.Repository
	Device    uint8         // XG device number used for sysex dumps
	Bridge    BridgeMetrics // optional
	Fanout    FanoutStats   // optional
	Version   string
}

// Server is the HTTP API server.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	registry  *xgparam.Registry
	snapshots snapshot.Repository
	device    uint8
	bridge    BridgeMetrics
	fanout    FanoutStats
	version   string
	server    *http.Server
	hub       *Hub
	cancel    context.CancelFunc // cancels the hub on Close()
}

// New creates a new API server with the given dependencies.
//
// The WebSocket hub exists as soon as New returns, so it can be added to
// the fan-out as a sink before the server starts.
//
// Parameters:
//   - deps: Required dependencies (config, logger, registry, snapshots)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("parameter registry is required")
	}
	if deps.Snapshots == nil {
		return nil, fmt.Errorf("snapshot repository is required")
	}

	return &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		registry:  deps.Registry,
		snapshots: deps.Snapshots,
		device:    deps.Device,
		bridge:    deps.Bridge,
		fanout:    deps.Fanout,
		version:   deps.Version,
		hub:       NewHub(deps.WS, deps.Logger, deps.Registry),
	}, nil
}

// Hub returns the WebSocket hub. It implements fanout.Sink.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub and launches the HTTP listener in a
// background goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
