package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/routegate/model"
	"github.com/viant/routegate/progress"
	"github.com/viant/routegate/service/approval"
	"github.com/viant/routegate/tracing"
	"github.com/viant/routegate/workflow"
)

// Approve records the founder approval of traceID and resumes the request.
// The first decision is final: approving a rejected request returns the
// rejection, and approving a resumed request reports it as already resumed.
func (o *Orchestrator) Approve(ctx context.Context, traceID, reason string) (*model.Response, error) {
	rec, _, err := o.approvals.Resolve(ctx, traceID, approval.StatusApproved, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to approve %v: %w", traceID, err)
	}
	if rec == nil {
		return notFound(traceID), nil
	}
	if rec.Status == approval.StatusRejected {
		return rejected(rec), nil
	}
	return o.resumeApproved(ctx, rec)
}

// Reject records the founder rejection of traceID. A request approved
// earlier stays approved; only the first rejection is reflected and counted.
func (o *Orchestrator) Reject(ctx context.Context, traceID, reason string) (*model.Response, error) {
	rec, claimed, err := o.approvals.Resolve(ctx, traceID, approval.StatusRejected, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to reject %v: %w", traceID, err)
	}
	if rec == nil {
		return notFound(traceID), nil
	}
	switch {
	case claimed:
	case rec.Status == approval.StatusApproved:
		return o.resumeApproved(ctx, rec)
	default:
		return rejected(rec), nil
	}
	resp := rejected(rec)
	o.reflect(ctx, traceID, rec.Text, rec.Context, resp)
	o.tracker.Update(progress.Delta{Blocked: 1})
	o.logger.Info().Str("trace_id", traceID).Str("reason", reason).Msg("approval_rejected")
	return resp, nil
}

// resumeApproved resumes rec unless another caller already did.
func (o *Orchestrator) resumeApproved(ctx context.Context, rec *approval.Pending) (*model.Response, error) {
	resp, err := o.Resume(ctx, rec.TraceID)
	if errors.Is(err, ErrAlreadyResumed) {
		return &model.Response{
			Status:   model.StatusSuccess,
			TraceID:  rec.TraceID,
			Intent:   rec.Intent,
			Priority: rec.Priority,
			Reason:   ReasonAlreadyResumed,
			Verdict:  rec.Verdict,
			Resumed:  true,
			Trail:    model.Trail{model.StageAwaitingApproval, model.StageAllowed},
		}, nil
	}
	return resp, err
}

// Resume dispatches an approved request once, using its stored input, intent
// and context. Gates are not evaluated again. A second call returns
// ErrAlreadyResumed.
func (o *Orchestrator) Resume(ctx context.Context, traceID string) (*model.Response, error) {
	rec, claimed, err := o.approvals.MarkResumed(ctx, traceID)
	if err != nil {
		return nil, fmt.Errorf("failed to resume %v: %w", traceID, err)
	}
	if rec == nil {
		return notFound(traceID), nil
	}
	if !claimed {
		switch rec.Status {
		case approval.StatusPending:
			return &model.Response{
				Status:   model.StatusPendingApproval,
				TraceID:  traceID,
				Intent:   rec.Intent,
				Priority: rec.Priority,
				Reason:   ReasonAwaiting,
				Verdict:  rec.Verdict,
				Trail:    model.Trail{model.StageAwaitingApproval},
			}, nil
		case approval.StatusRejected:
			return rejected(rec), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrAlreadyResumed, traceID)
	}

	started := o.now()
	ctx, span := tracing.StartSpan(ctx, "resume", traceID)
	span.WithAttributes(map[string]string{tracing.AttrIntent: rec.Intent}).WithInt(tracing.AttrPriority, rec.Priority)
	resp := &model.Response{
		TraceID:  traceID,
		Intent:   rec.Intent,
		Priority: rec.Priority,
		Verdict:  rec.Verdict,
		Resumed:  true,
		Trail:    model.Trail{model.StageAwaitingApproval, model.StageAllowed},
	}
	delta := o.dispatch(ctx, &workflow.Input{
		TraceID:  traceID,
		Text:     rec.Text,
		Intent:   rec.Intent,
		Priority: rec.Priority,
		Context:  model.CopyValues(rec.Context),
	}, resp)
	delta.Resumed = 1
	req := model.NewRequestWithID(traceID, rec.Text, rec.Context)
	return o.finish(ctx, span, started, req, resp, delta), nil
}

func notFound(traceID string) *model.Response {
	return &model.Response{Status: model.StatusNotFound, TraceID: traceID, Reason: "unknown trace id"}
}

func rejected(rec *approval.Pending) *model.Response {
	reason := ReasonRejected
	if rec.Reason != "" {
		reason = ReasonRejected + ": " + rec.Reason
	}
	return &model.Response{
		Status:   model.StatusBlocked,
		TraceID:  rec.TraceID,
		Intent:   rec.Intent,
		Priority: rec.Priority,
		Reason:   reason,
		Verdict:  rec.Verdict,
		Trail:    model.Trail{model.StageAwaitingApproval, model.StageRejected},
	}
}
