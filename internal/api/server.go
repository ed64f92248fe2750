package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nerrad567/holocron/internal/graphql"
	"github.com/nerrad567/holocron/internal/infrastructure/config"
	"github.com/nerrad567/holocron/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Executor runs GraphQL requests. *graphql.Executor implements it.
type Executor interface {
	Subscriber
	Execute(ctx context.Context, req graphql.Request) graphql.Result
}

// BusStats exposes event bus counters for /metrics.
type BusStats interface {
	SubscriberCount() int
	Published() uint64
}

// HealthChecker is implemented by optional backing services (database, MQTT).
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	GraphQL   config.GraphQLConfig
	WebSocket config.WebSocketConfig
	Logger    *logging.Logger
	Executor  Executor
	Bus       BusStats

	// Optional.
	Clock    clockwork.Clock
	Recorder SessionRecorder
	Checks   map[string]HealthChecker
	Version  string
}

// Server is the HTTP server for Holocron.
//
// It manages the HTTP listener, routes, middleware, and the session hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	gqlCfg    config.GraphQLConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	executor  Executor
	bus       BusStats
	clock     clockwork.Clock
	recorder  SessionRecorder
	checks    map[string]HealthChecker
	version   string
	startTime time.Time
	hub       *Hub
	handler   http.Handler
	server    *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called; Handler() is usable
// immediately.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Executor == nil {
		return nil, fmt.Errorf("graphql executor is required")
	}
	if deps.Bus == nil {
		return nil, fmt.Errorf("event bus is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	s := &Server{
		cfg:       deps.Config,
		gqlCfg:    deps.GraphQL,
		wsCfg:     deps.WebSocket,
		logger:    deps.Logger.With("component", "api"),
		executor:  deps.Executor,
		bus:       deps.Bus,
		clock:     clock,
		recorder:  deps.Recorder,
		checks:    deps.Checks,
		version:   deps.Version,
		startTime: clock.Now(),
	}
	s.hub = NewHub(s.logger)
	s.handler = s.buildRouter()
	return s, nil
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the session hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections.
//
// The listener is bound synchronously so a port conflict is reported here;
// serving happens in a background goroutine. errCh, when non-nil, receives
// the serve error if the listener stops unexpectedly.
func (s *Server) Start(errCh chan<- error) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
		// ReadTimeout and WriteTimeout are left unset: they would also cut
		// hijacked WebSocket connections. Sessions set their own write deadlines.
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", ln.Addr().String(),
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ServeTLS(ln, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", ln.Addr().String())
			err = s.server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
			if errCh != nil {
				errCh <- err
			}
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// Subscription sessions are drained first, then in-flight HTTP requests get
// up to 10 seconds to complete.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.hub.Shutdown(ctx); err != nil {
		s.logger.Warn("websocket sessions did not drain in time", "error", err)
	}

	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
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
