package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Validate(t *testing.T) {
	type testCase struct {
		name        string
		policy      *Policy
		text        string
		intent      string
		priority    int
		allowed     bool
		reasonMatch string
	}
	tests := []testCase{
		{name: "nil policy", policy: nil, text: "illegal", intent: "chat", allowed: true},
		{name: "clean text", policy: Default(), text: "I want to book a visit, price?", intent: "sales", priority: 3, allowed: true},
		{name: "deny token regardless of intent", policy: Default(), text: "something ILLEGAL here", intent: "support", priority: 1, allowed: false, reasonMatch: `"illegal"`},
		{name: "deny token regardless of priority", policy: Default(), text: "illegal", intent: "chat", priority: 99, allowed: false, reasonMatch: "illegal"},
		{name: "blocked intent", policy: Default(), text: "do it", intent: "harm_human", allowed: false, reasonMatch: "harm_human"},
		{name: "deny mode", policy: &Policy{Mode: ModeDeny}, text: "hello", intent: "chat", allowed: false, reasonMatch: "denied"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := tc.policy.Validate(tc.text, tc.intent, tc.priority, nil)
			assert.Equal(t, tc.allowed, result.Allowed)
			if tc.reasonMatch != "" {
				assert.Contains(t, result.Reason, tc.reasonMatch)
			}
		})
	}
}

func TestPolicy_CheckViolation(t *testing.T) {
	p := Default()
	assert.Equal(t, "", p.CheckViolation("sales", "price please"))
	assert.Contains(t, p.CheckViolation("override_founder", "ok"), "override_founder")
	assert.Contains(t, p.CheckViolation("chat", "an illegal plan"), "illegal")
	assert.Equal(t, "", (*Policy)(nil).CheckViolation("harm_human", "illegal"))
}

func TestConfigRoundTrip(t *testing.T) {
	p := Default()
	cfg := ToConfig(p)
	cfg.DenyTokens[0] = "changed"
	assert.Equal(t, "illegal", p.DenyTokens[0])
	assert.EqualValues(t, []string{"changed"}, FromConfig(cfg).DenyTokens)
	assert.Nil(t, ToConfig(nil))
	assert.Nil(t, FromConfig(nil))
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	p := &Policy{DenyTokens: []string{"x"}}
	ctx := WithPolicy(context.Background(), p)
	assert.Same(t, p, FromContext(ctx))
}
