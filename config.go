package routegate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/routegate/alignment"
	"github.com/viant/routegate/costguard"
	"github.com/viant/routegate/intent"
	"github.com/viant/routegate/policy"
	"github.com/viant/routegate/priority"
	"github.com/viant/routegate/reflection"
	"gopkg.in/yaml.v3"
)

// Provider kinds.
const (
	KindOpenAI    = "openai"
	KindGroq      = "groq"
	KindAnthropic = "anthropic"
	KindStatic    = "static"
)

// GroqBaseURL is the OpenAI compatible Groq endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// Config is a serialisable representation of the router configuration. It
// can be populated from YAML, JSON or viper. Zero-value sections inherit
// their package defaults.
type Config struct {
	Intent     IntentConfig     `json:"intent" yaml:"intent" mapstructure:"intent"`
	Priority   PriorityConfig   `json:"priority" yaml:"priority" mapstructure:"priority"`
	Policy     policy.Config    `json:"policy" yaml:"policy" mapstructure:"policy"`
	Alignment  AlignmentConfig  `json:"alignment" yaml:"alignment" mapstructure:"alignment"`
	Budget     BudgetConfig     `json:"budget" yaml:"budget" mapstructure:"budget"`
	Providers  []ProviderConfig `json:"providers,omitempty" yaml:"providers,omitempty" mapstructure:"providers"`
	Primary    string           `json:"primary,omitempty" yaml:"primary,omitempty" mapstructure:"primary"`
	Reflection ReflectionConfig `json:"reflection" yaml:"reflection" mapstructure:"reflection"`
	Approval   ApprovalConfig   `json:"approval" yaml:"approval" mapstructure:"approval"`
	Tracing    TracingConfig    `json:"tracing" yaml:"tracing" mapstructure:"tracing"`
}

// IntentConfig configures the classifier.
type IntentConfig struct {
	Rules    intent.Table `json:"rules,omitempty" yaml:"rules,omitempty" mapstructure:"rules"`
	Fallback string       `json:"fallback,omitempty" yaml:"fallback,omitempty" mapstructure:"fallback"`
	Empty    string       `json:"empty,omitempty" yaml:"empty,omitempty" mapstructure:"empty"`
}

// PriorityConfig configures the priority scorer.
type PriorityConfig struct {
	Table   priority.Table `json:"table,omitempty" yaml:"table,omitempty" mapstructure:"table"`
	Default int            `json:"default,omitempty" yaml:"default,omitempty" mapstructure:"default"`
}

// AlignmentConfig configures the judgment gate.
type AlignmentConfig struct {
	FounderActions []string         `json:"founderActions,omitempty" yaml:"founderActions,omitempty" mapstructure:"founderActions"`
	Rules          []alignment.Rule `json:"rules,omitempty" yaml:"rules,omitempty" mapstructure:"rules"`
}

// BudgetConfig configures the cost guard.
type BudgetConfig struct {
	Default   costguard.Limits            `json:"default" yaml:"default" mapstructure:"default"`
	Providers map[string]costguard.Limits `json:"providers,omitempty" yaml:"providers,omitempty" mapstructure:"providers"`
	// StoreURL persists ledgers when set (any afs URL).
	StoreURL string `json:"storeURL,omitempty" yaml:"storeURL,omitempty" mapstructure:"storeURL"`
}

// ProviderConfig configures one generation provider.
type ProviderConfig struct {
	Name              string  `json:"name" yaml:"name" mapstructure:"name"`
	Kind              string  `json:"kind" yaml:"kind" mapstructure:"kind"`
	Model             string  `json:"model,omitempty" yaml:"model,omitempty" mapstructure:"model"`
	BaseURL           string  `json:"baseURL,omitempty" yaml:"baseURL,omitempty" mapstructure:"baseURL"`
	APIKey            string  `json:"apiKey,omitempty" yaml:"apiKey,omitempty" mapstructure:"apiKey"`
	APIKeyEnv         string  `json:"apiKeyEnv,omitempty" yaml:"apiKeyEnv,omitempty" mapstructure:"apiKeyEnv"`
	MaxTokens         int     `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty" mapstructure:"maxTokens"`
	System            string  `json:"system,omitempty" yaml:"system,omitempty" mapstructure:"system"`
	RequestsPerSecond float64 `json:"requestsPerSecond,omitempty" yaml:"requestsPerSecond,omitempty" mapstructure:"requestsPerSecond"`
	Burst             int     `json:"burst,omitempty" yaml:"burst,omitempty" mapstructure:"burst"`
	// Reply is the canned answer of a static provider; empty echoes the prompt.
	Reply string `json:"reply,omitempty" yaml:"reply,omitempty" mapstructure:"reply"`
}

// ReflectionConfig configures the reflection log.
type ReflectionConfig struct {
	Retention  int    `json:"retention,omitempty" yaml:"retention,omitempty" mapstructure:"retention"`
	SQLitePath string `json:"sqlitePath,omitempty" yaml:"sqlitePath,omitempty" mapstructure:"sqlitePath"`
}

// ApprovalConfig configures the approval queue.
type ApprovalConfig struct {
	// StoreURL persists pending approvals when set (any afs URL).
	StoreURL string `json:"storeURL,omitempty" yaml:"storeURL,omitempty" mapstructure:"storeURL"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled    bool   `json:"enabled,omitempty" yaml:"enabled,omitempty" mapstructure:"enabled"`
	Service    string `json:"service,omitempty" yaml:"service,omitempty" mapstructure:"service"`
	Version    string `json:"version,omitempty" yaml:"version,omitempty" mapstructure:"version"`
	OutputFile string `json:"outputFile,omitempty" yaml:"outputFile,omitempty" mapstructure:"outputFile"`
}

// DefaultConfig returns a Config populated with the built-in tables, deny
// lists and daily ceilings. Callers may modify the returned struct before
// passing it to WithConfig.
func DefaultConfig() *Config {
	return &Config{
		Intent:     IntentConfig{Rules: intent.DefaultTable(), Fallback: intent.Custom, Empty: intent.Chat},
		Priority:   PriorityConfig{Table: priority.DefaultTable(), Default: priority.DefaultPriority},
		Policy:     *policy.ToConfig(policy.Default()),
		Budget:     BudgetConfig{Default: costguard.DefaultLimits()},
		Providers:  []ProviderConfig{{Name: KindStatic, Kind: KindStatic}},
		Reflection: ReflectionConfig{Retention: reflection.DefaultRetention},
		Tracing:    TracingConfig{Service: "routegate", Version: "0.1.0"},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Reflection.Retention < 0 {
		errs = append(errs, fmt.Errorf("reflection.retention must be >= 0"))
	}
	if c.Priority.Default < 0 {
		errs = append(errs, fmt.Errorf("priority.default must be >= 0"))
	}
	if c.Budget.Default.CostPer1K < 0 {
		errs = append(errs, fmt.Errorf("budget.default.costPer1K must be >= 0"))
	}
	names := map[string]bool{}
	for i, p := range c.Providers {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("providers[%d].name is required", i))
			continue
		}
		if names[p.Name] {
			errs = append(errs, fmt.Errorf("providers[%d]: duplicate name %v", i, p.Name))
		}
		names[p.Name] = true
		switch strings.ToLower(p.Kind) {
		case KindOpenAI, KindGroq, KindAnthropic, KindStatic:
		default:
			errs = append(errs, fmt.Errorf("providers[%d]: unsupported kind %q", i, p.Kind))
		}
	}
	if c.Primary != "" && len(c.Providers) > 0 && !names[c.Primary] {
		errs = append(errs, fmt.Errorf("primary provider %v is not configured", c.Primary))
	}
	for i, rule := range c.Alignment.Rules {
		switch rule.Severity {
		case "", alignment.SeverityLow, alignment.SeverityMedium, alignment.SeverityHigh:
		default:
			errs = append(errs, fmt.Errorf("alignment.rules[%d]: unsupported severity %q", i, rule.Severity))
		}
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML config from any afs URL on top of DefaultConfig.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	ret := DefaultConfig()
	if err = yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
	}
	if err = ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %v: %w", URL, err)
	}
	return ret, nil
}
