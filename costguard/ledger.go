package costguard

import (
	"errors"
	"math"
	"time"
)

// ErrBudgetExceeded is returned when admitting a request would pass a ceiling.
var ErrBudgetExceeded = errors.New("budget exceeded")

// Default ceilings.
const (
	DefaultDailyTokens = 250000
	DefaultDailyCost   = 5.0
	DefaultCostPer1K   = 0.00059
)

// Limits configures ceilings for one provider; values <= 0 disable a ceiling.
type Limits struct {
	DailyTokens int64   `json:"dailyTokens" yaml:"dailyTokens" mapstructure:"dailyTokens"`
	DailyCost   float64 `json:"dailyCost" yaml:"dailyCost" mapstructure:"dailyCost"`
	CostPer1K   float64 `json:"costPer1K" yaml:"costPer1K" mapstructure:"costPer1K"`
}

// DefaultLimits returns the built-in ceilings.
func DefaultLimits() Limits {
	return Limits{DailyTokens: DefaultDailyTokens, DailyCost: DefaultDailyCost, CostPer1K: DefaultCostPer1K}
}

// Cost prices tokens.
func (l Limits) Cost(tokens int64) float64 {
	return float64(tokens) / 1000 * l.CostPer1K
}

// Ledger holds the counters of one provider for the current day.
type Ledger struct {
	Provider       string    `json:"provider"`
	TokensUsed     int64     `json:"tokensUsed"`
	CostUsed       float64   `json:"costUsed"`
	ReservedTokens int64     `json:"reservedTokens"`
	ReservedCost   float64   `json:"reservedCost"`
	LastReset      time.Time `json:"lastReset"`
}

func (l *Ledger) reset(day time.Time) {
	l.TokensUsed = 0
	l.CostUsed = 0
	l.ReservedTokens = 0
	l.ReservedCost = 0
	l.LastReset = day
}

// Snapshot exposes ledger counters for observability.
type Snapshot struct {
	Provider       string    `json:"provider"`
	TokensUsed     int64     `json:"tokens_used_today"`
	CostUsed       float64   `json:"cost_used_today"`
	ReservedTokens int64     `json:"tokens_reserved"`
	TokenLimit     int64     `json:"token_limit"`
	CostLimit      float64   `json:"cost_limit"`
	LastReset      time.Time `json:"last_reset"`
}

func newSnapshot(l *Ledger, limits Limits) Snapshot {
	return Snapshot{
		Provider:       l.Provider,
		TokensUsed:     l.TokensUsed,
		CostUsed:       math.Round(l.CostUsed*10000) / 10000,
		ReservedTokens: l.ReservedTokens,
		TokenLimit:     limits.DailyTokens,
		CostLimit:      limits.DailyCost,
		LastReset:      l.LastReset,
	}
}

// EstimateTokens approximates the token count of text by character length.
func EstimateTokens(text string) int64 {
	n := int64(len([]rune(text)) / 4)
	if n < 1 {
		return 1
	}
	return n
}
