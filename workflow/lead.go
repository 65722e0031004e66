package workflow

import (
	"context"
	"fmt"

	"github.com/viant/routegate/intent"
)

// Lead scoring weights.
const (
	BudgetWeight        = 30
	UrgencyWeight       = 40
	DecisionMakerWeight = 30
	QualificationQuorum = 60
)

// ScoreLead scores a lead record and reports whether it qualifies.
func ScoreLead(lead map[string]interface{}) (int, bool) {
	score := 0
	if truthy(lead["budget"]) {
		score += BudgetWeight
	}
	if truthy(lead["urgency"]) {
		score += UrgencyWeight
	}
	if truthy(lead["decision_maker"]) {
		score += DecisionMakerWeight
	}
	return score, score >= QualificationQuorum
}

// Lead qualifies the "lead" context entry.
type Lead struct{}

// NewLead creates the lead workflow.
func NewLead() *Lead { return &Lead{} }

func (l *Lead) Name() string { return intent.Lead }

func (l *Lead) Execute(_ context.Context, input *Input) (*Output, error) {
	score, qualified := ScoreLead(asMap(input.Context["lead"]))
	state := "not qualified"
	if qualified {
		state = "qualified"
	}
	return &Output{
		Message:  fmt.Sprintf("lead scored %d (%s)", score, state),
		Metadata: map[string]interface{}{"lead_score": score, "qualified": qualified},
	}, nil
}
