package costguard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/viant/routegate/internal/clock"
	"github.com/viant/routegate/service/dao"
)

// Guard tracks ledgers for every provider.
type Guard struct {
	mu       sync.Mutex
	now      clock.Func
	defaults Limits
	limits   map[string]Limits
	ledgers  map[string]*Ledger
	store    dao.Service[string, Ledger]
	logger   zerolog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock sets the time source.
func WithClock(now clock.Func) Option {
	return func(g *Guard) { g.now = now }
}

// WithLimits sets ceilings for a provider.
func WithLimits(provider string, limits Limits) Option {
	return func(g *Guard) { g.limits[provider] = limits }
}

// WithDefaultLimits sets ceilings for providers without explicit limits.
func WithDefaultLimits(limits Limits) Option {
	return func(g *Guard) { g.defaults = limits }
}

// WithStore persists ledgers so counters survive restarts within a day.
func WithStore(store dao.Service[string, Ledger]) Option {
	return func(g *Guard) { g.store = store }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Guard) { g.logger = logger }
}

// New creates a guard.
func New(opts ...Option) *Guard {
	ret := &Guard{
		now:      clock.Now,
		defaults: DefaultLimits(),
		limits:   map[string]Limits{},
		ledgers:  map[string]*Ledger{},
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Limits returns the ceilings applied to provider.
func (g *Guard) Limits(provider string) Limits {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.limitsFor(provider)
}

func (g *Guard) limitsFor(provider string) Limits {
	if limits, ok := g.limits[provider]; ok {
		return limits
	}
	return g.defaults
}

// EstimateCost prices tokens for provider.
func (g *Guard) EstimateCost(provider string, tokens int64) float64 {
	return g.Limits(provider).Cost(tokens)
}

// AssertAllowed fails with ErrBudgetExceeded when admitting tokens would pass a ceiling.
func (g *Guard) AssertAllowed(ctx context.Context, provider string, tokens int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	ledger := g.ledger(ctx, provider)
	return g.check(ledger, g.limitsFor(provider), normalize(tokens))
}

// AssertPrompt estimates prompt tokens and checks them.
func (g *Guard) AssertPrompt(ctx context.Context, provider, prompt string) error {
	return g.AssertAllowed(ctx, provider, EstimateTokens(prompt))
}

// RecordUsage commits real usage after a successful generation.
func (g *Guard) RecordUsage(ctx context.Context, provider string, tokens int64) error {
	if tokens <= 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	ledger := g.ledger(ctx, provider)
	ledger.TokensUsed += tokens
	ledger.CostUsed += g.limitsFor(provider).Cost(tokens)
	return g.persist(ctx, ledger)
}

// Reserve admits tokens and holds them against the ceiling until the
// reservation is committed or released.
func (g *Guard) Reserve(ctx context.Context, provider string, tokens int64) (*Reservation, error) {
	tokens = normalize(tokens)
	g.mu.Lock()
	defer g.mu.Unlock()
	ledger := g.ledger(ctx, provider)
	limits := g.limitsFor(provider)
	if err := g.check(ledger, limits, tokens); err != nil {
		return nil, err
	}
	cost := limits.Cost(tokens)
	ledger.ReservedTokens += tokens
	ledger.ReservedCost += cost
	if err := g.persist(ctx, ledger); err != nil {
		g.logger.Warn().Err(err).Str("provider", provider).Msg("budget_persist_failed")
	}
	return &Reservation{guard: g, provider: provider, tokens: tokens, cost: cost, day: ledger.LastReset}, nil
}

// Snapshot returns the counters of provider.
func (g *Guard) Snapshot(ctx context.Context, provider string) Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return newSnapshot(g.ledger(ctx, provider), g.limitsFor(provider))
}

// Snapshots returns counters of every known provider sorted by name.
func (g *Guard) Snapshots(ctx context.Context) []Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	names := map[string]bool{}
	for name := range g.ledgers {
		names[name] = true
	}
	for name := range g.limits {
		names[name] = true
	}
	if g.store != nil {
		if stored, err := g.store.List(ctx); err == nil {
			for _, l := range stored {
				names[l.Provider] = true
			}
		}
	}
	ret := make([]Snapshot, 0, len(names))
	for name := range names {
		ret = append(ret, newSnapshot(g.ledger(ctx, name), g.limitsFor(name)))
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Provider < ret[j].Provider })
	return ret
}

func (g *Guard) check(ledger *Ledger, limits Limits, tokens int64) error {
	if limits.DailyTokens > 0 && ledger.TokensUsed+ledger.ReservedTokens+tokens > limits.DailyTokens {
		return fmt.Errorf("%w: daily token budget of %v for %v", ErrBudgetExceeded, limits.DailyTokens, ledger.Provider)
	}
	cost := limits.Cost(tokens)
	if limits.DailyCost > 0 && ledger.CostUsed+ledger.ReservedCost+cost > limits.DailyCost {
		return fmt.Errorf("%w: daily cost budget of %.2f for %v", ErrBudgetExceeded, limits.DailyCost, ledger.Provider)
	}
	return nil
}

// ledger returns the current ledger of provider, resetting it when the day rolled over.
// Caller must hold g.mu.
func (g *Guard) ledger(ctx context.Context, provider string) *Ledger {
	today := clock.Day(g.now())
	ledger, ok := g.ledgers[provider]
	if !ok {
		ledger = g.load(ctx, provider)
		if ledger == nil {
			ledger = &Ledger{Provider: provider, LastReset: today}
		}
		g.ledgers[provider] = ledger
	}
	if clock.After(today, ledger.LastReset) {
		g.logger.Info().Str("provider", provider).Time("last_reset", ledger.LastReset).Int64("tokens_used", ledger.TokensUsed).Msg("budget_reset")
		ledger.reset(today)
		if err := g.persist(ctx, ledger); err != nil {
			g.logger.Warn().Err(err).Str("provider", provider).Msg("budget_persist_failed")
		}
	}
	return ledger
}

func (g *Guard) load(ctx context.Context, provider string) *Ledger {
	if g.store == nil {
		return nil
	}
	ledger, err := g.store.Load(ctx, provider)
	if err != nil {
		if !errors.Is(err, dao.ErrNotFound) {
			g.logger.Warn().Err(err).Str("provider", provider).Msg("budget_load_failed")
		}
		return nil
	}
	// reservations do not outlive the process that made them
	ledger.ReservedTokens = 0
	ledger.ReservedCost = 0
	return ledger
}

func (g *Guard) persist(ctx context.Context, ledger *Ledger) error {
	if g.store == nil {
		return nil
	}
	copied := *ledger
	return g.store.Save(ctx, &copied)
}

// Reservation is an admitted token estimate.
type Reservation struct {
	guard    *Guard
	provider string
	tokens   int64
	cost     float64
	day      time.Time
	done     bool
}

// Tokens returns the reserved estimate.
func (r *Reservation) Tokens() int64 { return r.tokens }

// Commit replaces the reservation with actual usage; actual <= 0 commits the estimate.
func (r *Reservation) Commit(ctx context.Context, actual int64) error {
	if actual <= 0 {
		actual = r.tokens
	}
	g := r.guard
	g.mu.Lock()
	defer g.mu.Unlock()
	if r.done {
		return nil
	}
	r.done = true
	ledger := g.ledger(ctx, r.provider)
	r.unhold(ledger)
	ledger.TokensUsed += actual
	ledger.CostUsed += g.limitsFor(r.provider).Cost(actual)
	return g.persist(ctx, ledger)
}

// Release drops the reservation without recording usage.
func (r *Reservation) Release(ctx context.Context) error {
	g := r.guard
	g.mu.Lock()
	defer g.mu.Unlock()
	if r.done {
		return nil
	}
	r.done = true
	ledger := g.ledger(ctx, r.provider)
	r.unhold(ledger)
	return g.persist(ctx, ledger)
}

// unhold subtracts the reservation unless the ledger was reset since it was made.
func (r *Reservation) unhold(ledger *Ledger) {
	if !ledger.LastReset.Equal(r.day) {
		return
	}
	ledger.ReservedTokens -= r.tokens
	ledger.ReservedCost -= r.cost
	if ledger.ReservedTokens < 0 {
		ledger.ReservedTokens = 0
	}
	if ledger.ReservedCost < 0 {
		ledger.ReservedCost = 0
	}
}

func normalize(tokens int64) int64 {
	if tokens <= 0 {
		return 1
	}
	return tokens
}
