package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAI talks to any OpenAI compatible chat completion endpoint (OpenAI,
// Groq, local inference servers) depending on BaseURL.
type OpenAI struct {
	name      string
	model     string
	maxTokens int
	system    string
	client    *openai.Client
}

// OpenAIConfig configures an OpenAI compatible provider.
type OpenAIConfig struct {
	Name      string
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	System    string
}

// NewOpenAI creates a provider.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai provider %v: api key is required", cfg.Name)
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Name == "" {
		cfg.Name = "openai"
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	return &OpenAI{
		name:      cfg.Name,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		system:    cfg.System,
		client:    openai.NewClientWithConfig(clientConfig),
	}, nil
}

func (o *OpenAI) Name() string { return o.name }

func (o *OpenAI) Generate(ctx context.Context, prompt string) (*Generation, error) {
	started := time.Now()
	var messages []openai.ChatCompletionMessage
	if o.system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: o.system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		Messages:  messages,
		MaxTokens: o.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%v chat completion failed: %w", o.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%v returned no choices", o.name)
	}
	model := resp.Model
	if model == "" {
		model = o.model
	}
	return &Generation{
		Text:       resp.Choices[0].Message.Content,
		TokensUsed: int64(resp.Usage.TotalTokens),
		Model:      model,
		LatencyMs:  time.Since(started).Milliseconds(),
		Provider:   o.name,
	}, nil
}

func (o *OpenAI) HealthCheck(ctx context.Context) error {
	if _, err := o.client.ListModels(ctx); err != nil {
		return fmt.Errorf("%w: %v: %v", ErrUnhealthy, o.name, err)
	}
	return nil
}
