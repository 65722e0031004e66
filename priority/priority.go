// Package priority scores intents; a lower number means higher urgency.
package priority

import "github.com/viant/routegate/intent"

// DefaultPriority is assigned to intents missing from the table.
const DefaultPriority = 5

// Table maps intent labels to priorities.
type Table map[string]int

// DefaultTable returns the built-in priority table.
func DefaultTable() Table {
	return Table{
		intent.Support: 1,
		intent.Goal:    2,
		intent.Sales:   3,
		intent.Chat:    4,
	}
}

// Scorer looks up static intent priorities.
type Scorer struct {
	table    Table
	fallback int
}

// New creates a scorer; an empty table uses DefaultTable and fallback <= 0 uses DefaultPriority.
func New(table Table, fallback int) *Scorer {
	if len(table) == 0 {
		table = DefaultTable()
	}
	if fallback <= 0 {
		fallback = DefaultPriority
	}
	copied := make(Table, len(table))
	for k, v := range table {
		copied[k] = v
	}
	return &Scorer{table: copied, fallback: fallback}
}

// Score returns the priority for an intent. The context is accepted for
// scorers that weigh request attributes; the static table ignores it.
func (s *Scorer) Score(label string, _ map[string]interface{}) int {
	if p, ok := s.table[label]; ok {
		return p
	}
	return s.fallback
}

// Compare orders two priorities: negative when a is more urgent than b.
func Compare(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
