package idgen

import "github.com/google/uuid"

// NewFunc produces a raw unique identifier; tests may replace it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier.
func New() string { return NewFunc() }

// TraceID returns the correlation identifier assigned to one inbound
// routing request.
func TraceID() string { return "trace-" + NewFunc() }
