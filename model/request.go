package model

import (
	"fmt"
	"time"

	"github.com/viant/routegate/internal/clock"
	"github.com/viant/routegate/internal/idgen"
)

// TraceKey is the context entry carrying the trace id.
const TraceKey = "trace_id"

// Request is the immutable input of one routing run.
type Request struct {
	TraceID   string
	Text      string
	CreatedAt time.Time
	values    map[string]interface{}
}

// NewRequest copies values and assigns a fresh trace id.
func NewRequest(text string, values map[string]interface{}) *Request {
	return NewRequestWithID(idgen.TraceID(), text, values)
}

// NewRequestWithID builds a request around a caller supplied trace id.
func NewRequestWithID(traceID, text string, values map[string]interface{}) *Request {
	ret := &Request{
		TraceID:   traceID,
		Text:      text,
		CreatedAt: clock.Now(),
		values:    CopyValues(values),
	}
	ret.values[TraceKey] = traceID
	return ret
}

// Value returns a context entry.
func (r *Request) Value(key string) interface{} {
	if r == nil {
		return nil
	}
	return r.values[key]
}

// String returns a context entry formatted as string, empty when absent.
func (r *Request) String(key string) string {
	v := r.Value(key)
	switch actual := v.(type) {
	case nil:
		return ""
	case string:
		return actual
	default:
		return fmt.Sprintf("%v", actual)
	}
}

// Values returns a copy of the request context.
func (r *Request) Values() map[string]interface{} {
	if r == nil {
		return map[string]interface{}{}
	}
	return CopyValues(r.values)
}

// CopyValues returns a shallow copy of values, never nil.
func CopyValues(values map[string]interface{}) map[string]interface{} {
	ret := make(map[string]interface{}, len(values)+1)
	for k, v := range values {
		ret[k] = v
	}
	return ret
}
