package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nerrad567/holocron/internal/eventbus"
	"github.com/nerrad567/holocron/internal/graphql"
	"github.com/nerrad567/holocron/internal/human"
	"github.com/nerrad567/holocron/internal/infrastructure/config"
	"github.com/nerrad567/holocron/internal/infrastructure/logging"
)

// testEnv bundles a server with the collaborators tests poke at.
type testEnv struct {
	srv      *Server
	bus      *eventbus.Bus[human.Human]
	clock    *clockwork.FakeClock
	recorder *fakeRecorder
	http     *httptest.Server
}

type testOption func(*Deps)

func withChecks(checks map[string]HealthChecker) testOption {
	return func(d *Deps) { d.Checks = checks }
}

func withCORS(origins ...string) testOption {
	return func(d *Deps) { d.Config.CORS.AllowedOrigins = origins }
}

// newTestEnv creates a Server backed by the stub repository, a fresh bus and
// a fake clock, served by httptest.
func newTestEnv(t *testing.T, opts ...testOption) *testEnv {
	t.Helper()

	log := logging.Discard()
	bus := eventbus.New[human.Human](100)
	exec, err := graphql.NewExecutor(graphql.Deps{
		Repo:   human.NewStubRepository(),
		Bus:    bus,
		Logger: log,
	})
	if err != nil {
		t.Fatalf("NewExecutor() error: %v", err)
	}

	cfg := config.Default()
	clock := clockwork.NewFakeClock()
	recorder := &fakeRecorder{}

	deps := Deps{
		Config:    cfg.API,
		GraphQL:   cfg.GraphQL,
		WebSocket: cfg.WebSocket,
		Logger:    log,
		Executor:  exec,
		Bus:       bus,
		Clock:     clock,
		Recorder:  recorder,
		Version:   "test",
	}
	for _, opt := range opts {
		opt(&deps)
	}

	srv, err := New(deps)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close() //nolint:errcheck
		ts.Close()
		bus.Close()
	})

	return &testEnv{srv: srv, bus: bus, clock: clock, recorder: recorder, http: ts}
}

// serve runs a request against the handler without a network listener.
func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

// fakeRecorder captures session telemetry.
type fakeRecorder struct {
	mu       sync.Mutex
	sessions []recordedSession
}

type recordedSession struct {
	id        string
	delivered uint64
	pings     uint64
}

func (r *fakeRecorder) RecordSession(id string, _ time.Duration, delivered, pings uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, recordedSession{id: id, delivered: delivered, pings: pings})
}

func (r *fakeRecorder) recorded() []recordedSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedSession(nil), r.sessions...)
}

type fakeChecker struct{ err error }

func (c fakeChecker) HealthCheck(context.Context) error { return c.err }

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body %q: %v", w.Body.String(), err)
	}
	return body
}

// ─── Construction ──────────────────────────────────────────────────

func TestNew_RequiresDeps(t *testing.T) {
	bus := eventbus.New[human.Human](1)
	exec, _ := graphql.NewExecutor(graphql.Deps{Repo: human.NewStubRepository(), Bus: bus})

	tests := []struct {
		name string
		deps Deps
	}{
		{"no logger", Deps{Executor: exec, Bus: bus}},
		{"no executor", Deps{Logger: logging.Discard(), Bus: bus}},
		{"no bus", Deps{Logger: logging.Discard(), Executor: exec}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.deps); err == nil {
				t.Error("New() succeeded, want error")
			}
		})
	}
}

func TestHealthCheck_NotStarted(t *testing.T) {
	env := newTestEnv(t)
	if err := env.srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Start should fail")
	}
}

// ─── Health and Metrics ────────────────────────────────────────────

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.serve(httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	body := decodeBody(t, w)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("health body = %v", body)
	}
}

func TestHealth_Degraded(t *testing.T) {
	env := newTestEnv(t, withChecks(map[string]HealthChecker{
		"database": fakeChecker{},
		"mqtt":     fakeChecker{err: errors.New("not connected")},
	}))

	w := env.serve(httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("health status = %d, want 503", w.Code)
	}
	body := decodeBody(t, w)
	checks, _ := body["checks"].(map[string]any)
	if body["status"] != "degraded" || checks["database"] != "ok" || checks["mqtt"] != "not connected" {
		t.Errorf("health body = %v", body)
	}
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t)
	h := env.bus.Subscribe()
	defer h.Close()
	env.bus.Publish(human.Human{ID: "1"}) //nolint:errcheck

	w := env.serve(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}

	var m SystemMetrics
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decoding metrics: %v", err)
	}
	if m.EventBus.Subscribers != 1 || m.EventBus.EventsPublished != 1 {
		t.Errorf("event bus metrics = %+v", m.EventBus)
	}
	if m.WebSocket.OpenSessions != 0 {
		t.Errorf("open sessions = %d, want 0", m.WebSocket.OpenSessions)
	}
	if m.Runtime.Goroutines == 0 {
		t.Error("goroutines = 0")
	}
}

// ─── Middleware ────────────────────────────────────────────────────

func TestRequestID_Generated(t *testing.T) {
	env := newTestEnv(t)

	w := env.serve(httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestRequestID_PreservesClient(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w := env.serve(req)

	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want client-123", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := env.serve(req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"wildcard without origin", []string{"*"}, "", "*"},
		{"wildcard echoes origin", []string{"*"}, "http://a.example", "http://a.example"},
		{"listed origin", []string{"http://a.example"}, "http://a.example", "http://a.example"},
		{"unlisted origin", []string{"http://a.example"}, "http://b.example", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, withCORS(tt.allowed...))
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := env.serve(req)
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.serve(httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if body := decodeBody(t, w); body["code"] != ErrCodeNotFound {
		t.Errorf("code = %v, want %s", body["code"], ErrCodeNotFound)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	w := env.serve(httptest.NewRequest(http.MethodDelete, "/graphql", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

// ─── Pages ─────────────────────────────────────────────────────────

func TestHomepageAndPlayground(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/", "/playground"} {
		w := env.serve(httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d", path, w.Code)
		}
		if !strings.Contains(w.Body.String(), "<!DOCTYPE html>") {
			t.Errorf("GET %s did not return HTML", path)
		}
	}
}

func TestPlaygroundDisabled(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.GraphQL.Playground = false })

	w := env.serve(httptest.NewRequest(http.MethodGet, "/playground", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("GET /playground status = %d, want 404", w.Code)
	}
}
