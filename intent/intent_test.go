package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_Detect(t *testing.T) {
	type testCase struct {
		name     string
		text     string
		expected string
	}
	tests := []testCase{
		{name: "empty", text: "", expected: Chat},
		{name: "blank", text: "   \t", expected: Chat},
		{name: "sales price", text: "I want to book a visit, price?", expected: Sales},
		{name: "case insensitive", text: "What is the PRICE", expected: Sales},
		{name: "goal", text: "please automate my reports", expected: Goal},
		{name: "support", text: "I have an issue", expected: Support},
		{name: "lead", text: "new prospect arrived", expected: Lead},
		{name: "chat", text: "namaste", expected: Chat},
		{name: "table order wins", text: "help me buy something", expected: Sales},
		{name: "no match", text: "zzz qqq", expected: Custom},
	}
	classifier := New(nil)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, classifier.Detect(tc.text))
		})
	}
}

func TestClassifier_Options(t *testing.T) {
	classifier := New(Table{{Label: "billing", Keywords: []string{" Invoice "}}},
		WithEmptyLabel("idle"), WithFallback(Chat))

	assert.Equal(t, "idle", classifier.Detect(""))
	assert.Equal(t, "billing", classifier.Detect("where is my invoice"))
	assert.Equal(t, Chat, classifier.Detect("price"))
	assert.Equal(t, []string{"billing"}, classifier.Labels())
}
