// Package policy is the hard constraint layer evaluated before any soft
// judgment. A match is final: the request is blocked and no workflow runs.
//
// A Policy can be attached to a single routing call via context so that a
// caller may tighten the rules for one request without rebuilding the
// orchestrator.
package policy

import (
	"context"
	"fmt"
	"strings"
)

// Execution modes.
const (
	ModeEnforce = "enforce" // evaluate deny lists (default)
	ModeDeny    = "deny"    // block every request
)

// Default deny-list entries.
var (
	DefaultDenyTokens     = []string{"illegal"}
	DefaultBlockedIntents = []string{"harm_human", "self_replication", "illegal_activity", "override_founder"}
)

// Policy holds hard rules. A nil *Policy allows everything.
//
//   - DenyTokens match as case-insensitive substrings of the request text.
//   - BlockedIntents match the detected intent or proposed action exactly (case-insensitive).
type Policy struct {
	Mode           string
	DenyTokens     []string
	BlockedIntents []string
}

// Result is the outcome of a constraint check.
type Result struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Token   string `json:"token,omitempty"`
	Intent  string `json:"intent,omitempty"`
}

// Default returns a policy with built-in deny lists.
func Default() *Policy {
	return &Policy{
		Mode:           ModeEnforce,
		DenyTokens:     append([]string(nil), DefaultDenyTokens...),
		BlockedIntents: append([]string(nil), DefaultBlockedIntents...),
	}
}

// Config represents the declarative, serialisable part of a Policy.
type Config struct {
	Mode           string   `json:"mode,omitempty" yaml:"mode,omitempty" mapstructure:"mode"`
	DenyTokens     []string `json:"denyTokens,omitempty" yaml:"denyTokens,omitempty" mapstructure:"denyTokens"`
	BlockedIntents []string `json:"blockedIntents,omitempty" yaml:"blockedIntents,omitempty" mapstructure:"blockedIntents"`
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	return &Config{
		Mode:           p.Mode,
		DenyTokens:     append([]string(nil), p.DenyTokens...),
		BlockedIntents: append([]string(nil), p.BlockedIntents...),
	}
}

// FromConfig converts a stored Config back to a runtime Policy.
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return &Policy{
		Mode:           c.Mode,
		DenyTokens:     append([]string(nil), c.DenyTokens...),
		BlockedIntents: append([]string(nil), c.BlockedIntents...),
	}
}

// Validate checks request text and intent against the hard rules. The
// priority and context are accepted for rule sets that weigh them; the deny
// lists do not.
func (p *Policy) Validate(text, intent string, _ int, _ map[string]interface{}) *Result {
	if p == nil {
		return &Result{Allowed: true}
	}
	if strings.EqualFold(p.Mode, ModeDeny) {
		return &Result{Allowed: false, Reason: "policy violation: all requests denied", Intent: intent}
	}
	if token := p.matchToken(text); token != "" {
		return &Result{Allowed: false, Reason: fmt.Sprintf("policy violation: text contains %q", token), Token: token, Intent: intent}
	}
	if p.isBlocked(intent) {
		return &Result{Allowed: false, Reason: fmt.Sprintf("policy violation: intent %q is blocked", intent), Intent: intent}
	}
	return &Result{Allowed: true, Intent: intent}
}

// CheckViolation re-checks a proposed action and its text; it returns the
// violation reason or an empty string.
func (p *Policy) CheckViolation(action, text string) string {
	if p == nil {
		return ""
	}
	if strings.EqualFold(p.Mode, ModeDeny) {
		return "policy violation: all requests denied"
	}
	if p.isBlocked(action) {
		return fmt.Sprintf("policy violation: action %q is blocked", action)
	}
	if token := p.matchToken(text); token != "" {
		return fmt.Sprintf("policy violation: text contains %q", token)
	}
	return ""
}

func (p *Policy) matchToken(text string) string {
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	for _, token := range p.DenyTokens {
		t := strings.ToLower(strings.TrimSpace(token))
		if t != "" && strings.Contains(lower, t) {
			return t
		}
	}
	return ""
}

func (p *Policy) isBlocked(name string) bool {
	if name == "" {
		return false
	}
	for _, b := range p.BlockedIntents {
		if strings.EqualFold(name, strings.TrimSpace(b)) {
			return true
		}
	}
	return false
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy embedded with WithPolicy, or nil.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
