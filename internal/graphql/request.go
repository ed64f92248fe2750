package graphql

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Request is a GraphQL request as sent over HTTP or in a subscribe frame.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// ParseRequest decodes a JSON request body or frame.
func ParseRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if strings.TrimSpace(req.Query) == "" {
		return Request{}, fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}
	return req, nil
}

// RequestFromQuery builds a Request from GET query parameters.
// variables, when present, must be a JSON object.
func RequestFromQuery(values url.Values) (Request, error) {
	req := Request{
		Query:         values.Get("query"),
		OperationName: values.Get("operationName"),
	}
	if strings.TrimSpace(req.Query) == "" {
		return Request{}, fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}
	if raw := values.Get("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
			return Request{}, fmt.Errorf("%w: variables: %v", ErrInvalidRequest, err)
		}
	}
	return req, nil
}
