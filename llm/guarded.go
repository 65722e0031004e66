package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/viant/routegate/costguard"
	"golang.org/x/time/rate"
)

// Guarded admits every generation through the cost guard and an optional
// request rate limit. A call rejected by the guard never reaches the provider.
type Guarded struct {
	Provider
	guard   *costguard.Guard
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// GuardOption configures Guarded.
type GuardOption func(*Guarded)

// WithRateLimit caps requests per second; rps <= 0 disables the limit.
func WithRateLimit(rps float64, burst int) GuardOption {
	return func(g *Guarded) {
		if rps <= 0 {
			g.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithGuardLogger sets the logger.
func WithGuardLogger(logger zerolog.Logger) GuardOption {
	return func(g *Guarded) { g.logger = logger }
}

// Guard wraps p.
func Guard(p Provider, guard *costguard.Guard, opts ...GuardOption) *Guarded {
	ret := &Guarded{Provider: p, guard: guard, logger: log.Logger}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Generate reserves the prompt estimate, calls the provider and commits the
// reported usage, or releases the reservation when generation fails.
func (g *Guarded) Generate(ctx context.Context, prompt string) (*Generation, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%v rate limit: %w", g.Name(), err)
		}
	}
	estimate := costguard.EstimateTokens(prompt)
	reservation, err := g.guard.Reserve(ctx, g.Name(), estimate)
	if err != nil {
		g.logger.Warn().Err(err).Str("provider", g.Name()).Int64("estimated_tokens", estimate).Msg("generation_rejected")
		return nil, err
	}
	generation, err := g.Provider.Generate(ctx, prompt)
	if err != nil {
		if rErr := reservation.Release(ctx); rErr != nil {
			g.logger.Warn().Err(rErr).Str("provider", g.Name()).Msg("budget_release_failed")
		}
		return nil, err
	}
	used := generation.TokensUsed
	if used <= 0 {
		used = costguard.EstimateTokens(prompt) + costguard.EstimateTokens(generation.Text)
		generation.TokensUsed = used
	}
	if err := reservation.Commit(ctx, used); err != nil {
		g.logger.Warn().Err(err).Str("provider", g.Name()).Msg("budget_commit_failed")
	}
	g.logger.Debug().Str("provider", g.Name()).Int64("tokens_used", used).Int64("latency_ms", generation.LatencyMs).Msg("generation_completed")
	return generation, nil
}
