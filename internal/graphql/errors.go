package graphql

import (
	"errors"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// ErrInvalidRequest is returned when a request body is not a GraphQL request.
var ErrInvalidRequest = errors.New("graphql: invalid request")

// Error codes placed in extensions.code.
const (
	CodeEventsMissed          = "EVENTS_MISSED"
	CodeHumanNotFound         = "HUMAN_NOT_FOUND"
	CodeInvalidInput          = "INVALID_INPUT"
	CodeIntrospectionDisabled = "INTROSPECTION_DISABLED"
	CodeNotSubscription       = "NOT_SUBSCRIPTION"
	CodeSubscriptionOverHTTP  = "SUBSCRIPTION_REQUIRES_WEBSOCKET"
	CodeOperationNotFound     = "OPERATION_NOT_FOUND"
	CodeInternal              = "INTERNAL_ERROR"
)

// QueryError carries the GraphQL errors that stopped an operation from
// starting: syntax, validation or variable coercion failures.
type QueryError struct {
	Errors gqlerror.List
}

func (e *QueryError) Error() string {
	return e.Errors.Error()
}

// codedError builds an error with extensions.code set.
func codedError(code, format string, args ...any) *gqlerror.Error {
	err := gqlerror.Errorf(format, args...)
	err.Extensions = map[string]any{"code": code}
	return err
}

// asList converts an arbitrary error into a gqlerror list.
func asList(err error) gqlerror.List {
	var list gqlerror.List
	if errors.As(err, &list) {
		return list
	}
	var gqlErr *gqlerror.Error
	if errors.As(err, &gqlErr) {
		return gqlerror.List{gqlErr}
	}
	return gqlerror.List{gqlerror.Errorf("%s", err.Error())}
}
