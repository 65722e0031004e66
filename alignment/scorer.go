package alignment

import "strings"

// Severity grades a misalignment.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Alignment is a scorer outcome; the zero value means aligned.
type Alignment struct {
	Misaligned bool     `json:"misaligned"`
	Severity   Severity `json:"severity,omitempty"`
	Reason     string   `json:"reason,omitempty"`
}

// Scorer judges whether an action fits the configured values.
type Scorer interface {
	Evaluate(action, intent string, values map[string]interface{}) Alignment
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(action, intent string, values map[string]interface{}) Alignment

// Evaluate calls f.
func (f ScorerFunc) Evaluate(action, intent string, values map[string]interface{}) Alignment {
	return f(action, intent, values)
}

// Aligned is a Scorer that never reports misalignment.
var Aligned Scorer = ScorerFunc(func(string, string, map[string]interface{}) Alignment { return Alignment{} })

// Rule flags actions or text containing Keyword.
type Rule struct {
	Keyword  string   `json:"keyword" yaml:"keyword" mapstructure:"keyword"`
	Severity Severity `json:"severity" yaml:"severity" mapstructure:"severity"`
	Reason   string   `json:"reason,omitempty" yaml:"reason,omitempty" mapstructure:"reason"`
}

// KeywordScorer matches rules against the action and the "text" context entry.
// Rules are checked in order and the first match is returned.
type KeywordScorer struct {
	Rules []Rule
}

// NewKeywordScorer creates a keyword scorer.
func NewKeywordScorer(rules ...Rule) *KeywordScorer {
	return &KeywordScorer{Rules: rules}
}

// Evaluate implements Scorer.
func (s *KeywordScorer) Evaluate(action, _ string, values map[string]interface{}) Alignment {
	if s == nil {
		return Alignment{}
	}
	haystack := strings.ToLower(action)
	if text, ok := values["text"].(string); ok {
		haystack += " " + strings.ToLower(text)
	}
	for _, rule := range s.Rules {
		keyword := strings.ToLower(strings.TrimSpace(rule.Keyword))
		if keyword == "" || !strings.Contains(haystack, keyword) {
			continue
		}
		severity := rule.Severity
		if severity == "" {
			severity = SeverityMedium
		}
		reason := rule.Reason
		if reason == "" {
			reason = "value misalignment: " + keyword
		}
		return Alignment{Misaligned: true, Severity: severity, Reason: reason}
	}
	return Alignment{}
}
