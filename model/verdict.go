package model

// VerdictKind enumerates gate outcomes.
type VerdictKind string

const (
	VerdictAllow            VerdictKind = "allow"
	VerdictAllowWithWarning VerdictKind = "allow_with_warning"
	VerdictDefer            VerdictKind = "defer"
	VerdictRequireApproval  VerdictKind = "require_approval"
	VerdictReject           VerdictKind = "reject"
)

// Proceeds reports whether the workflow may run for this verdict.
func (k VerdictKind) Proceeds() bool {
	return k == VerdictAllow || k == VerdictAllowWithWarning
}

// Verdict is the single decision produced for a request per pipeline run.
type Verdict struct {
	Kind    VerdictKind `json:"verdict" yaml:"verdict"`
	Reason  string      `json:"reason" yaml:"reason"`
	TraceID string      `json:"traceId" yaml:"traceId"`
}

// NewVerdict creates a verdict.
func NewVerdict(kind VerdictKind, reason, traceID string) *Verdict {
	return &Verdict{Kind: kind, Reason: reason, TraceID: traceID}
}

// Clone returns a copy of the verdict.
func (v *Verdict) Clone() *Verdict {
	if v == nil {
		return nil
	}
	ret := *v
	return &ret
}
