package approval

import (
	"time"

	"github.com/viant/routegate/model"
)

// Status of a pending approval.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Standard event topics.
const (
	TopicRequestCreated  = "request.created"
	TopicDecisionCreated = "decision.created"
	TopicRequestResumed  = "request.resumed"
)

// Pending holds the full suspended execution context of a request.
type Pending struct {
	TraceID   string                 `json:"traceId"`
	Text      string                 `json:"text"`
	Intent    string                 `json:"intent"`
	Priority  int                    `json:"priority"`
	Action    string                 `json:"action,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Verdict   *model.Verdict         `json:"verdict,omitempty"`
	Status    Status                 `json:"status"`
	Reason    string                 `json:"reason,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	DecidedAt *time.Time             `json:"decidedAt,omitempty"`
	Resumed   bool                   `json:"resumed,omitempty"`
}

// Clone returns a deep enough copy for callers to mutate safely.
func (p *Pending) Clone() *Pending {
	if p == nil {
		return nil
	}
	ret := *p
	ret.Context = model.CopyValues(p.Context)
	ret.Verdict = p.Verdict.Clone()
	if p.DecidedAt != nil {
		decided := *p.DecidedAt
		ret.DecidedAt = &decided
	}
	return &ret
}

// Event is published on every queue transition.
type Event struct {
	Topic   string            `json:"topic"`
	Record  *Pending          `json:"record"`
	Headers map[string]string `json:"headers,omitempty"`
}
