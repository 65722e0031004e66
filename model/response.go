package model

// Status tags every terminal (or suspended) routing outcome.
type Status string

const (
	StatusBlocked         Status = "blocked"
	StatusDeferred        Status = "deferred"
	StatusPendingApproval Status = "pending_approval"
	StatusSuccess         Status = "success"
	// StatusFailed covers budget exhaustion and internal workflow errors.
	StatusFailed Status = "failed"
	// StatusNotFound answers approve/reject/resume on an unknown trace id.
	StatusNotFound Status = "not_found"
)

// Response is returned by the orchestrator for every routing call.
type Response struct {
	Status   Status                 `json:"status"`
	TraceID  string                 `json:"trace_id"`
	Intent   string                 `json:"intent,omitempty"`
	Priority int                    `json:"priority,omitempty"`
	Workflow string                 `json:"workflow,omitempty"`
	Message  string                 `json:"message,omitempty"`
	Output   map[string]interface{} `json:"output,omitempty"`
	Reason   string                 `json:"reason,omitempty"`
	Warning  string                 `json:"warning,omitempty"`
	Verdict  *Verdict               `json:"verdict,omitempty"`
	Resumed  bool                   `json:"resumed,omitempty"`
	Trail    Trail                  `json:"trail,omitempty"`
}

// AsMap renders the response as the untyped record handed to transports.
func (r *Response) AsMap() map[string]interface{} {
	ret := map[string]interface{}{
		"status":   string(r.Status),
		"trace_id": r.TraceID,
	}
	if r.Intent != "" {
		ret["intent"] = r.Intent
	}
	if r.Priority != 0 {
		ret["priority"] = r.Priority
	}
	if r.Workflow != "" {
		ret["workflow"] = r.Workflow
	}
	if r.Message != "" {
		ret["message"] = r.Message
	}
	if r.Output != nil {
		ret["output"] = r.Output
	}
	if r.Reason != "" {
		ret["reason"] = r.Reason
	}
	if r.Warning != "" {
		ret["warning"] = r.Warning
	}
	if r.Resumed {
		ret["resumed"] = true
	}
	return ret
}
