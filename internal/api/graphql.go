package api

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/nerrad567/holocron/internal/graphql"
)

// handleGraphQLGet serves queries from URL parameters, or hands a valid
// WebSocket upgrade over to a subscription session.
func (s *Server) handleGraphQLGet(w http.ResponseWriter, r *http.Request) {
	if isWebSocketUpgrade(r) {
		s.handleWebSocket(w, r)
		return
	}

	req, err := graphql.RequestFromQuery(r.URL.Query())
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	s.executeGraphQL(w, r, req)
}

// handleGraphQLPost serves queries and mutations from a JSON body.
func (s *Server) handleGraphQLPost(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			writeError(w, http.StatusUnsupportedMediaType, ErrCodeUnsupportedContent,
				"content type must be application/json")
			return
		}
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "request body too large")
			return
		}
		writeBadRequest(w, "reading request body failed")
		return
	}

	req, err := graphql.ParseRequest(body)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	s.executeGraphQL(w, r, req)
}

// executeGraphQL runs req and writes the result. GraphQL-level errors are
// reported in the body with status 200.
func (s *Server) executeGraphQL(w http.ResponseWriter, r *http.Request, req graphql.Request) {
	res := s.executor.Execute(r.Context(), req)
	if !res.OK() {
		s.logger.Debug("graphql request returned errors",
			"operation", req.OperationName,
			"errors", len(res.Errors),
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
	}
	writeJSON(w, http.StatusOK, res)
}
