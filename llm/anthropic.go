package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicMaxTokens caps replies when no limit is configured.
const DefaultAnthropicMaxTokens = 1024

// Anthropic calls the Claude messages API.
type Anthropic struct {
	name      string
	model     anthropic.Model
	maxTokens int64
	system    string
	client    anthropic.Client
}

// AnthropicConfig configures the provider.
type AnthropicConfig struct {
	Name      string
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	System    string
}

// NewAnthropic creates a provider.
func NewAnthropic(cfg AnthropicConfig) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic provider %v: api key is required", cfg.Name)
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Name == "" {
		cfg.Name = "anthropic"
	}
	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = DefaultAnthropicMaxTokens
	}
	return &Anthropic{
		name:      cfg.Name,
		model:     model,
		maxTokens: maxTokens,
		system:    cfg.System,
		client:    anthropic.NewClient(opts...),
	}, nil
}

func (a *Anthropic) Name() string { return a.name }

func (a *Anthropic) Generate(ctx context.Context, prompt string) (*Generation, error) {
	started := time.Now()
	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if a.system != "" {
		params.System = []anthropic.TextBlockParam{{Text: a.system}}
	}
	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%v message failed: %w", a.name, err)
	}
	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
		}
	}
	model := string(resp.Model)
	if model == "" {
		model = string(a.model)
	}
	return &Generation{
		Text:       text.String(),
		TokensUsed: resp.Usage.InputTokens + resp.Usage.OutputTokens,
		Model:      model,
		LatencyMs:  time.Since(started).Milliseconds(),
		Provider:   a.name,
	}, nil
}

func (a *Anthropic) HealthCheck(ctx context.Context) error {
	if _, err := a.client.Models.List(ctx, anthropic.ModelListParams{}); err != nil {
		return fmt.Errorf("%w: %v: %v", ErrUnhealthy, a.name, err)
	}
	return nil
}
