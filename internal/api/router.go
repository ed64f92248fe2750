package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/holocron/internal/playground"
)

// healthCheckTimeout bounds each backing-service check in /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	pages := playground.Options{
		GraphQLPath:       s.gqlCfg.Path,
		SubscriptionPath:  s.wsCfg.Path,
		PlaygroundEnabled: s.gqlCfg.Playground,
		Version:           s.version,
	}
	r.Method(http.MethodGet, "/", playground.HomeHandler(pages))
	if s.gqlCfg.Playground {
		r.Method(http.MethodGet, "/playground", playground.Handler(pages))
	}

	r.Get(s.gqlCfg.Path, s.handleGraphQLGet)
	r.Post(s.gqlCfg.Path, s.handleGraphQLPost)
	if s.wsCfg.Path != s.gqlCfg.Path {
		r.Get(s.wsCfg.Path, s.handleWebSocket)
	}

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	return r
}

// handleHealth returns the server health status. Each configured backing
// service is checked; any failure reports "degraded" with status 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	checks := make(map[string]string, len(s.checks))

	for name, checker := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := checker.HealthCheck(ctx)
		cancel()
		if err != nil {
			checks[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	resp := map[string]any{
		"status":  status,
		"version": s.version,
	}
	if len(checks) > 0 {
		resp["checks"] = checks
	}
	writeJSON(w, code, resp)
}
