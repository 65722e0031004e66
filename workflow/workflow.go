// Package workflow holds the business logic units dispatched after every gate
// allowed a request, and the registry mapping intents onto them.
package workflow

import (
	"context"
	"errors"

	"github.com/viant/routegate/llm"
)

// ErrNoDefault is returned when neither the intent nor the fallback resolve.
var ErrNoDefault = errors.New("workflow: no default workflow registered")

// Input is the stored request a workflow executes.
type Input struct {
	TraceID  string
	Text     string
	Intent   string
	Priority int
	Context  map[string]interface{}
}

// Output is a workflow result.
type Output struct {
	Message  string                 `json:"message"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Workflow executes a request.
type Workflow interface {
	Name() string
	Execute(ctx context.Context, input *Input) (*Output, error)
}

// Generator produces text; llm providers and registries implement it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*llm.Generation, error)
}

// Func adapts a function to a named Workflow.
type Func struct {
	name string
	fn   func(ctx context.Context, input *Input) (*Output, error)
}

// NewFunc creates a function workflow.
func NewFunc(name string, fn func(ctx context.Context, input *Input) (*Output, error)) *Func {
	return &Func{name: name, fn: fn}
}

func (f *Func) Name() string { return f.name }

func (f *Func) Execute(ctx context.Context, input *Input) (*Output, error) {
	return f.fn(ctx, input)
}

func generationMetadata(g *llm.Generation) map[string]interface{} {
	return map[string]interface{}{
		"tokens_used": g.TokensUsed,
		"model":       g.Model,
		"provider":    g.Provider,
		"latency_ms":  g.LatencyMs,
	}
}

func truthy(v interface{}) bool {
	switch actual := v.(type) {
	case nil:
		return false
	case bool:
		return actual
	case string:
		return actual != "" && actual != "false" && actual != "0"
	case int:
		return actual != 0
	case int64:
		return actual != 0
	case float64:
		return actual != 0
	case float32:
		return actual != 0
	}
	return true
}

func asMap(v interface{}) map[string]interface{} {
	switch actual := v.(type) {
	case map[string]interface{}:
		return actual
	case map[string]string:
		ret := make(map[string]interface{}, len(actual))
		for k, v := range actual {
			ret[k] = v
		}
		return ret
	}
	return nil
}
