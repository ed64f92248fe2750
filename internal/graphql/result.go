package graphql

import (
	"bytes"
	"encoding/json"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Result is either data or a list of errors, or both for partial results.
type Result struct {
	Data   any           `json:"data,omitempty"`
	Errors gqlerror.List `json:"errors,omitempty"`
}

// Success wraps resolved data.
func Success(data any) Result {
	return Result{Data: data}
}

// Failure wraps errors with no data.
func Failure(errs ...*gqlerror.Error) Result {
	return Result{Errors: errs}
}

// OK reports whether the result carries no errors.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// object is a JSON object that keeps its keys in selection order.
type object struct {
	keys   []string
	values map[string]any
}

func newObject(size int) *object {
	return &object{
		keys:   make([]string, 0, size),
		values: make(map[string]any, size),
	}
}

func (o *object) set(key string, value any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value stored under key.
func (o *object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (o *object) Keys() []string {
	return o.keys
}

func (o *object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
