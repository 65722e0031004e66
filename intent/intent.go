// Package intent maps raw request text to a coarse intent label.
package intent

import "strings"

// Known labels.
const (
	Chat    = "chat"
	Custom  = "custom"
	Sales   = "sales"
	Goal    = "goal"
	Support = "support"
	Lead    = "lead"
)

// Rule associates a label with its trigger keywords.
type Rule struct {
	Label    string   `json:"label" yaml:"label" mapstructure:"label"`
	Keywords []string `json:"keywords" yaml:"keywords" mapstructure:"keywords"`
}

// Table is an ordered rule list; the first matching rule wins.
type Table []Rule

// DefaultTable returns the built-in keyword table.
func DefaultTable() Table {
	return Table{
		{Label: Sales, Keywords: []string{"price", "cost", "buy", "purchase", "book", "investment"}},
		{Label: Goal, Keywords: []string{"goal", "target", "automate", "achieve"}},
		{Label: Support, Keywords: []string{"help", "issue", "problem", "error"}},
		{Label: Lead, Keywords: []string{"lead", "contact", "prospect"}},
		{Label: Chat, Keywords: []string{"hi", "hello", "namaste", "how", "what", "who"}},
	}
}

// Classifier detects intents with case-insensitive substring matching.
type Classifier struct {
	rules    Table
	empty    string
	fallback string
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithEmptyLabel sets the label returned for blank text.
func WithEmptyLabel(label string) Option {
	return func(c *Classifier) { c.empty = label }
}

// WithFallback sets the label returned when no keyword matches.
func WithFallback(label string) Option {
	return func(c *Classifier) { c.fallback = label }
}

// New creates a classifier; an empty table uses DefaultTable.
func New(table Table, opts ...Option) *Classifier {
	if len(table) == 0 {
		table = DefaultTable()
	}
	ret := &Classifier{empty: Chat, fallback: Custom}
	ret.rules = make(Table, 0, len(table))
	for _, rule := range table {
		keywords := make([]string, 0, len(rule.Keywords))
		for _, k := range rule.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				keywords = append(keywords, k)
			}
		}
		ret.rules = append(ret.rules, Rule{Label: rule.Label, Keywords: keywords})
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Detect returns the label of the first rule with a matching keyword.
func (c *Classifier) Detect(text string) string {
	if strings.TrimSpace(text) == "" {
		return c.empty
	}
	lower := strings.ToLower(text)
	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, keyword) {
				return rule.Label
			}
		}
	}
	return c.fallback
}

// Labels returns the labels in match order.
func (c *Classifier) Labels() []string {
	ret := make([]string, 0, len(c.rules))
	for _, rule := range c.rules {
		ret = append(ret, rule.Label)
	}
	return ret
}
