package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/routegate/llm"
)

type fakeGenerator struct {
	prompts []string
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (*llm.Generation, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Generation{Text: "generated", TokensUsed: 9, Model: "m", Provider: "fake"}, nil
}

func TestRegistry_Select(t *testing.T) {
	registry := Builtin(nil)
	require.NoError(t, registry.Route("chat", "custom"))
	assert.Error(t, registry.Route("goal", "missing"))

	type testCase struct {
		intent   string
		expected string
	}
	tests := []testCase{
		{intent: "sales", expected: "sales"},
		{intent: "lead", expected: "lead"},
		{intent: "support", expected: "support"},
		{intent: "chat", expected: "custom"},
		{intent: "unmapped", expected: "custom"},
	}
	for _, tc := range tests {
		t.Run(tc.intent, func(t *testing.T) {
			w, err := registry.Select(tc.intent)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, w.Name())
		})
	}
	assert.Equal(t, []string{"custom", "lead", "sales", "support"}, registry.Names())
}

func TestRegistry_NoDefault(t *testing.T) {
	registry := NewRegistry("", NewLead())
	_, err := registry.Select("sales")
	assert.ErrorIs(t, err, ErrNoDefault)
}

func TestScoreLead(t *testing.T) {
	type testCase struct {
		name      string
		lead      map[string]interface{}
		score     int
		qualified bool
		action    string
	}
	tests := []testCase{
		{name: "empty", lead: nil, score: 0, qualified: false, action: ActionNurture},
		{name: "budget only", lead: map[string]interface{}{"budget": 5000}, score: 30, action: ActionNurture},
		{name: "urgency and decision maker", lead: map[string]interface{}{"urgency": "high", "decision_maker": true}, score: 70, qualified: true, action: ActionDemoCall},
		{name: "budget and decision maker", lead: map[string]interface{}{"budget": "yes", "decision_maker": true}, score: 60, qualified: true, action: ActionFollowUp},
		{name: "all", lead: map[string]interface{}{"budget": 1.5, "urgency": true, "decision_maker": "yes"}, score: 100, qualified: true, action: ActionCloseNow},
		{name: "falsy values", lead: map[string]interface{}{"budget": 0, "urgency": false, "decision_maker": ""}, score: 0, action: ActionNurture},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			score, qualified := ScoreLead(tc.lead)
			assert.Equal(t, tc.score, score)
			assert.Equal(t, tc.qualified, qualified)
			assert.Equal(t, tc.action, SalesAction(score, qualified))
		})
	}
}

func TestSales_Execute(t *testing.T) {
	type testCase struct {
		name          string
		text          string
		context       map[string]interface{}
		generator     *fakeGenerator
		expectMessage string
		expectTopic   string
		expectAction  string
		expectPrompts int
	}
	tests := []testCase{
		{
			name:          "price template",
			text:          "I want to book a visit, price?",
			expectMessage: "Our plots start from 25 Lakhs. Would you like a brochure?",
			expectTopic:   "price",
		},
		{
			name:          "project info override",
			text:          "where is it",
			context:       map[string]interface{}{"project_info": map[string]interface{}{"address": "Lonavala", "distance": "1h from Mumbai"}},
			expectMessage: "Project location: Lonavala, 1h from Mumbai.",
			expectTopic:   "location",
		},
		{
			name:          "general uses generator",
			text:          "tell me about investment returns",
			generator:     &fakeGenerator{},
			expectMessage: "generated",
			expectTopic:   "general",
			expectPrompts: 1,
		},
		{
			name:          "general without generator",
			text:          "tell me about investment returns",
			expectMessage: DefaultTemplates["fallback"],
			expectTopic:   "general",
		},
		{
			name:          "lead qualification",
			text:          "booking please",
			context:       map[string]interface{}{"lead": map[string]interface{}{"budget": true, "urgency": true, "decision_maker": true}},
			expectMessage: "Booking token is 1 Lakh. Shall I arrange a site visit?",
			expectTopic:   "booking",
			expectAction:  ActionCloseNow,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var generator Generator
			if tc.generator != nil {
				generator = tc.generator
			}
			output, err := NewSales(generator, nil).Execute(context.Background(), &Input{Text: tc.text, Intent: "sales", Context: tc.context})
			require.NoError(t, err)
			assert.Equal(t, tc.expectMessage, output.Message)
			assert.Equal(t, tc.expectTopic, output.Metadata["topic"])
			if tc.expectAction != "" {
				assert.Equal(t, tc.expectAction, output.Metadata["action"])
			} else {
				assert.NotContains(t, output.Metadata, "action")
			}
			if tc.generator != nil {
				assert.Len(t, tc.generator.prompts, tc.expectPrompts)
			}
		})
	}
}

func TestCustom_Execute(t *testing.T) {
	ctx := context.Background()
	echo, err := NewCustom(nil).Execute(ctx, &Input{Text: "plan the launch"})
	require.NoError(t, err)
	assert.Equal(t, "Received: plan the launch", echo.Message)

	generator := &fakeGenerator{}
	custom := NewCustom(generator)
	custom.AddStep(func(_ context.Context, state map[string]interface{}) (map[string]interface{}, error) {
		state["stepped"] = true
		return state, nil
	})
	output, err := custom.Execute(ctx, &Input{Text: "plan", Context: map[string]interface{}{"k": "v"}})
	require.NoError(t, err)
	assert.Equal(t, "generated", output.Message)
	assert.Equal(t, true, output.Metadata["stepped"])
	assert.Equal(t, int64(9), output.Metadata["tokens_used"])

	failing := NewCustom(&fakeGenerator{err: errors.New("budget")})
	_, err = failing.Execute(ctx, &Input{Text: "x"})
	assert.Error(t, err)
}

func TestLeadAndSupport_Execute(t *testing.T) {
	ctx := context.Background()
	lead, err := NewLead().Execute(ctx, &Input{Context: map[string]interface{}{"lead": map[string]string{"budget": "10L", "urgency": "now"}}})
	require.NoError(t, err)
	assert.Equal(t, "lead scored 70 (qualified)", lead.Message)

	support, err := NewSupport(nil).Execute(ctx, &Input{TraceID: "trace-1", Priority: 1, Text: "I have an issue"})
	require.NoError(t, err)
	assert.Contains(t, support.Message, "trace-1")
	assert.Equal(t, 1, support.Metadata["priority"])

	generator := &fakeGenerator{}
	_, err = NewSupport(generator).Execute(ctx, &Input{Text: "error on login"})
	require.NoError(t, err)
	require.Len(t, generator.prompts, 1)
	assert.Contains(t, generator.prompts[0], "error on login")
}
