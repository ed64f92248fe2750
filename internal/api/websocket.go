package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/nerrad567/holocron/internal/graphql"
	"github.com/nerrad567/holocron/internal/infrastructure/config"
	"github.com/nerrad567/holocron/internal/infrastructure/logging"
)

// SessionState is the lifecycle stage of a subscription session.
type SessionState int32

// Session states, in order.
const (
	StateConnecting SessionState = iota
	StateOpen
	StateDraining
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Subscriber starts subscription streams. *graphql.Executor implements it.
type Subscriber interface {
	Subscribe(ctx context.Context, req graphql.Request) (*graphql.Stream, error)
}

// SessionRecorder receives per-session counters when a session closes.
type SessionRecorder interface {
	RecordSession(id string, duration time.Duration, delivered, pings uint64)
}

// closeWriteTimeout bounds the close frame written while draining.
const closeWriteTimeout = time.Second

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// Hub tracks open subscription sessions.
type Hub struct {
	logger   *logging.Logger
	mu       sync.Mutex
	sessions map[*Session]struct{}
	closed   bool
	opened   atomic.Uint64
}

// NewHub creates a new session hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger:   logger,
		sessions: make(map[*Session]struct{}),
	}
}

// register adds a session. It fails once the hub is shutting down.
func (h *Hub) register(s *Session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.sessions[s] = struct{}{}
	h.opened.Add(1)
	return true
}

func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s)
	h.mu.Unlock()
}

// SessionCount returns the number of open sessions.
func (h *Hub) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// SessionsOpened returns the number of sessions accepted since start.
func (h *Hub) SessionsOpened() uint64 {
	return h.opened.Load()
}

// Shutdown refuses new sessions, drains every open one and waits for them
// to close or for ctx to end.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		s.cancel()
	}
	for _, s := range sessions {
		select {
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if len(sessions) > 0 {
		h.logger.Info("websocket sessions drained", "sessions", len(sessions))
	}
	return nil
}

// Session owns one client's WebSocket connection.
type Session struct {
	id       string
	hub      *Hub
	conn     *websocket.Conn
	exec     Subscriber
	cfg      config.WebSocketConfig
	clock    clockwork.Clock
	logger   *logging.Logger
	recorder SessionRecorder

	state  atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}

	// Owned by the run loop.
	stream    *graphql.Stream
	delivered uint64
	pings     uint64
	openedAt  time.Time
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *Session) setState(st SessionState) {
	s.state.Store(int32(st))
	s.logger.Debug("session state", "state", st.String())
}

// handleWebSocket validates the handshake, upgrades the connection and runs
// the session until it closes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := checkHandshake(r); err != nil {
		s.logger.Debug("websocket handshake rejected", "error", err, "remote", r.RemoteAddr)
		writeError(w, http.StatusBadRequest, ErrCodeHandshakeRejected, "expected a websocket upgrade request")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written an HTTP error response.
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	sess := &Session{
		id:       id,
		hub:      s.hub,
		conn:     conn,
		exec:     s.executor,
		cfg:      s.wsCfg,
		clock:    s.clock,
		logger:   s.logger.With("component", "websocket", "session_id", id),
		recorder: s.recorder,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	if !s.hub.register(sess) {
		cancel()
		//nolint:errcheck // Best-effort close frame during shutdown
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(closeWriteTimeout))
		conn.Close()
		return
	}

	sess.run(ctx)
}

// run is the session's main loop. It returns once the session is closed.
func (s *Session) run(ctx context.Context) {
	defer s.cancel()
	defer s.drain()

	s.openedAt = s.clock.Now()
	if s.cfg.MaxMessageSize > 0 {
		s.conn.SetReadLimit(int64(s.cfg.MaxMessageSize))
	}
	s.setState(StateOpen)
	s.logger.Info("websocket session opened", "sessions", s.hub.SessionCount())

	inbound := make(chan []byte)
	go s.readLoop(ctx, inbound)

	ticker := s.clock.NewTicker(s.cfg.GetPingInterval())
	defer ticker.Stop()

	for {
		var results <-chan graphql.Result
		if s.stream != nil {
			results = s.stream.Results()
		}

		select {
		case <-ctx.Done():
			return

		case frame, ok := <-inbound:
			if !ok {
				return
			}
			if err := s.handleFrame(ctx, frame); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}

		case res, ok := <-results:
			if !ok {
				// Stream ended (bus closed); keep the connection until the client leaves.
				s.stream = nil
				continue
			}
			if err := s.writeResult(res); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}
			s.delivered++

		case <-ticker.Chan():
			if err := s.writePing(); err != nil {
				s.logger.Debug("websocket ping failed", "error", err)
				return
			}
			s.pings++
		}
	}
}

// readLoop forwards text frames to the run loop. It closes inbound on read
// error or close frame. Control frames are handled inside ReadMessage.
func (s *Session) readLoop(ctx context.Context, inbound chan<- []byte) {
	defer close(inbound)

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read error", "error", err)
			} else {
				s.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		select {
		case inbound <- data:
		case <-ctx.Done():
			return
		}
	}
}

// handleFrame starts a subscription from a subscribe frame. Malformed frames
// are dropped. A rejected operation is answered with an errors frame. The
// returned error is a write failure only.
func (s *Session) handleFrame(ctx context.Context, frame []byte) error {
	req, err := graphql.ParseRequest(frame)
	if err != nil {
		s.logger.Debug("dropping malformed subscribe frame", "error", err)
		return nil
	}

	stream, err := s.exec.Subscribe(ctx, req)
	if err != nil {
		var qe *graphql.QueryError
		if errors.As(err, &qe) {
			return s.writeResult(graphql.Result{Errors: qe.Errors})
		}
		s.logger.Error("starting subscription failed", "error", err)
		return nil
	}

	if s.stream != nil {
		s.stream.Close()
	}
	s.stream = stream
	s.logger.Debug("subscription started", "operation", req.OperationName)
	return nil
}

func (s *Session) writeResult(res graphql.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		s.logger.Error("failed to marshal subscription result", "error", err)
		return nil
	}
	//nolint:errcheck // Best-effort deadline; write error caught below
	s.conn.SetWriteDeadline(s.writeDeadline())
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Session) writePing() error {
	return s.conn.WriteControl(websocket.PingMessage, nil, s.writeDeadline())
}

// writeDeadline uses the wall clock; network deadlines cannot follow a fake
// clock. A zero timeout means no deadline.
func (s *Session) writeDeadline() time.Time {
	timeout := s.cfg.GetWriteTimeout()
	if timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(timeout)
}

// drain releases the subscription, closes the connection and leaves the hub.
func (s *Session) drain() {
	s.setState(StateDraining)

	if s.stream != nil {
		s.stream.Close()
		s.stream = nil
	}

	//nolint:errcheck // Best-effort close frame; peer may be gone
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeWriteTimeout))
	s.conn.Close()

	s.hub.unregister(s)
	duration := s.clock.Since(s.openedAt)
	if s.recorder != nil {
		s.recorder.RecordSession(s.id, duration, s.delivered, s.pings)
	}

	s.setState(StateClosed)
	close(s.done)
	s.logger.Info("websocket session closed",
		"duration_ms", duration.Milliseconds(),
		"delivered", s.delivered,
		"pings", s.pings,
	)
}
