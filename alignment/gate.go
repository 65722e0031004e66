package alignment

import (
	"strings"

	"github.com/viant/routegate/model"
)

// Default verdict reasons.
const (
	ReasonFounderRequired = "founder approval required for this action"
	ReasonMisaligned      = "value misalignment"
	ReasonPartial         = "partial value misalignment"
	ReasonHistoricalRisk  = "historical risk detected, execution deferred"
	ReasonApproved        = "action approved"
	RiskHigh              = "high"
)

// ConstraintChecker re-checks hard constraints for a proposed action.
type ConstraintChecker interface {
	CheckViolation(action, text string) string
}

// History carries historical signals about similar requests.
type History struct {
	RiskSignal string `json:"risk_signal,omitempty"`
}

// Proposal is the input of the gate.
type Proposal struct {
	TraceID string
	Action  string
	Intent  string
	Text    string
	Context map[string]interface{}
	History *History
	// Constraints replaces the gate constraints for this proposal when set.
	Constraints ConstraintChecker
}

// Gate produces the soft verdict.
type Gate struct {
	constraints ConstraintChecker
	scorer      Scorer
	founder     map[string]bool
}

// New creates a gate; a nil scorer always aligns and nil constraints never violate.
func New(constraints ConstraintChecker, scorer Scorer, founderActions ...string) *Gate {
	if scorer == nil {
		scorer = Aligned
	}
	ret := &Gate{constraints: constraints, scorer: scorer, founder: map[string]bool{}}
	for _, action := range founderActions {
		if action = strings.TrimSpace(action); action != "" {
			ret.founder[strings.ToLower(action)] = true
		}
	}
	return ret
}

// RequiresFounder reports whether action needs founder approval.
func (g *Gate) RequiresFounder(action string) bool {
	return g.founder[strings.ToLower(action)]
}

// Evaluate returns exactly one verdict; each step short-circuits.
func (g *Gate) Evaluate(p *Proposal) *model.Verdict {
	constraints := g.constraints
	if p.Constraints != nil {
		constraints = p.Constraints
	}
	if constraints != nil {
		if violated := constraints.CheckViolation(p.Action, p.Text); violated != "" {
			return model.NewVerdict(model.VerdictReject, "constraint violated: "+violated, p.TraceID)
		}
	}
	if g.RequiresFounder(p.Action) {
		return model.NewVerdict(model.VerdictRequireApproval, ReasonFounderRequired, p.TraceID)
	}
	values := model.CopyValues(p.Context)
	if _, ok := values["text"]; !ok {
		values["text"] = p.Text
	}
	if alignment := g.scorer.Evaluate(p.Action, p.Intent, values); alignment.Misaligned {
		if alignment.Severity == SeverityHigh {
			return model.NewVerdict(model.VerdictReject, orDefault(alignment.Reason, ReasonMisaligned), p.TraceID)
		}
		return model.NewVerdict(model.VerdictAllowWithWarning, orDefault(alignment.Reason, ReasonPartial), p.TraceID)
	}
	if p.History != nil && strings.EqualFold(p.History.RiskSignal, RiskHigh) {
		return model.NewVerdict(model.VerdictDefer, ReasonHistoricalRisk, p.TraceID)
	}
	return model.NewVerdict(model.VerdictAllow, ReasonApproved, p.TraceID)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
