// Package llm connects workflows to text-generation providers. Providers are
// held by an explicit Registry passed to the components that need one, and
// are wrapped by Guarded so every call is admitted by the cost guard first.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrNoProvider is returned when a registry has no provider under a name.
	ErrNoProvider = errors.New("llm: no provider registered")
	// ErrUnhealthy is returned by health checks of unreachable providers.
	ErrUnhealthy = errors.New("llm: provider unhealthy")
)

// Generation is the normalised provider output.
type Generation struct {
	Text       string `json:"text"`
	TokensUsed int64  `json:"tokens_used"`
	Model      string `json:"model"`
	LatencyMs  int64  `json:"latency_ms"`
	Provider   string `json:"provider"`
}

// Provider generates text.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (*Generation, error)
	// HealthCheck returns nil when the provider is reachable.
	HealthCheck(ctx context.Context) error
}
