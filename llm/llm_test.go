package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/routegate/costguard"
)

type stubProvider struct {
	name   string
	text   string
	tokens int64
	err    error
	calls  int32
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Generate(context.Context, string) (*Generation, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return &Generation{Text: s.text, TokensUsed: s.tokens, Provider: s.name}, nil
}

func (s *stubProvider) HealthCheck(context.Context) error { return s.err }

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()
	_, err := registry.Primary()
	assert.ErrorIs(t, err, ErrNoProvider)

	a := &stubProvider{name: "a", text: "from a"}
	b := &stubProvider{name: "b", err: errors.New("down")}
	registry.Register(a)
	registry.Register(b)

	primary, err := registry.Primary()
	require.NoError(t, err)
	assert.Equal(t, "a", primary.Name())
	assert.Equal(t, []string{"a", "b"}, registry.Names())

	assert.ErrorIs(t, registry.SetPrimary("missing"), ErrNoProvider)
	require.NoError(t, registry.SetPrimary("b"))
	_, err = registry.Generate(ctx, "hi")
	assert.Error(t, err)

	health := registry.Healthy(ctx)
	assert.NoError(t, health["a"])
	assert.Error(t, health["b"])

	_, err = registry.Lookup("zzz")
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestGuarded_Generate(t *testing.T) {
	type testCase struct {
		name         string
		limits       costguard.Limits
		provider     *stubProvider
		prompt       string
		expectErr    error
		expectCalls  int32
		expectTokens int64
	}
	tests := []testCase{
		{
			name:         "commits reported usage",
			limits:       costguard.Limits{DailyTokens: 1000},
			provider:     &stubProvider{name: "p", text: "ok", tokens: 42},
			prompt:       "hello world",
			expectCalls:  1,
			expectTokens: 42,
		},
		{
			name:         "estimates missing usage",
			limits:       costguard.Limits{DailyTokens: 1000},
			provider:     &stubProvider{name: "p", text: "abcdefgh"},
			prompt:       "abcdefgh",
			expectCalls:  1,
			expectTokens: 4,
		},
		{
			name:        "budget exceeded never calls provider",
			limits:      costguard.Limits{DailyTokens: 1},
			provider:    &stubProvider{name: "p", text: "ok"},
			prompt:      "a prompt well over one token",
			expectErr:   costguard.ErrBudgetExceeded,
			expectCalls: 0,
		},
		{
			name:         "failure releases reservation",
			limits:       costguard.Limits{DailyTokens: 1000},
			provider:     &stubProvider{name: "p", err: errors.New("boom")},
			prompt:       "hello",
			expectCalls:  1,
			expectTokens: 0,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			guard := costguard.New(costguard.WithDefaultLimits(tc.limits))
			guarded := Guard(tc.provider, guard, WithRateLimit(1000, 10))
			generation, err := guarded.Generate(ctx, tc.prompt)
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
			}
			if err == nil {
				assert.Equal(t, tc.expectTokens, generation.TokensUsed)
			}
			assert.Equal(t, tc.expectCalls, atomic.LoadInt32(&tc.provider.calls))
			snapshot := guard.Snapshot(ctx, "p")
			assert.Equal(t, tc.expectTokens, snapshot.TokensUsed)
			assert.Equal(t, int64(0), snapshot.ReservedTokens)
		})
	}
}

func TestStatic(t *testing.T) {
	generation, err := NewStatic("", "fixed").Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "fixed", generation.Text)
	assert.Equal(t, "static", generation.Provider)
	assert.Equal(t, int64(1), generation.TokensUsed)

	echo, err := NewStatic("echo", "").Generate(context.Background(), "repeat me")
	require.NoError(t, err)
	assert.Equal(t, "repeat me", echo.Text)
}

func TestOpenAI_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/chat/completions":
			_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"llama3-8b-8192",
"choices":[{"index":0,"message":{"role":"assistant","content":"plan for today"},"finish_reason":"stop"}],
"usage":{"prompt_tokens":3,"completion_tokens":4,"total_tokens":7}}`))
		case "/v1/models":
			_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	provider, err := NewOpenAI(OpenAIConfig{Name: "groq", APIKey: "key", BaseURL: server.URL + "/v1/", Model: "llama3-8b-8192"})
	require.NoError(t, err)
	generation, err := provider.Generate(context.Background(), "plan my day")
	require.NoError(t, err)
	assert.Equal(t, "plan for today", generation.Text)
	assert.Equal(t, int64(7), generation.TokensUsed)
	assert.Equal(t, "llama3-8b-8192", generation.Model)
	assert.Equal(t, "groq", generation.Provider)
	assert.NoError(t, provider.HealthCheck(context.Background()))
}

func TestOpenAI_Unhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()
	provider, err := NewOpenAI(OpenAIConfig{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)
	assert.ErrorIs(t, provider.HealthCheck(context.Background()), ErrUnhealthy)

	_, err = NewOpenAI(OpenAIConfig{})
	assert.Error(t, err)
}

func TestAnthropic_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-20250514",
"content":[{"type":"text","text":"hello "},{"type":"text","text":"there"}],
"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":4}}`))
	}))
	defer server.Close()

	provider, err := NewAnthropic(AnthropicConfig{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)
	generation, err := provider.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", generation.Text)
	assert.Equal(t, int64(7), generation.TokensUsed)
	assert.Equal(t, "anthropic", generation.Provider)

	_, err = NewAnthropic(AnthropicConfig{})
	assert.Error(t, err)
}
