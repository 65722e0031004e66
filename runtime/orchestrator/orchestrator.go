package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/viant/routegate/alignment"
	"github.com/viant/routegate/costguard"
	"github.com/viant/routegate/intent"
	"github.com/viant/routegate/internal/clock"
	"github.com/viant/routegate/model"
	"github.com/viant/routegate/policy"
	"github.com/viant/routegate/priority"
	"github.com/viant/routegate/progress"
	"github.com/viant/routegate/reflection"
	"github.com/viant/routegate/service/approval"
	amemory "github.com/viant/routegate/service/approval/memory"
	"github.com/viant/routegate/tracing"
	"github.com/viant/routegate/workflow"
)

// Reasons surfaced for failed runs; internal error details stay in the logs.
const (
	ReasonWorkflowFailed = "workflow execution failed"
	ReasonBudgetExceeded = "budget exceeded"
	ReasonRejected       = "rejected by founder"
	ReasonAwaiting       = "awaiting founder decision"
	ReasonAlreadyResumed = "already resumed"
)

// ErrAlreadyResumed is returned when an approved request was already resumed.
var ErrAlreadyResumed = errors.New("orchestrator: request already resumed")

// Classifier detects intents.
type Classifier interface {
	Detect(text string) string
}

// Scorer scores intents.
type Scorer interface {
	Score(intent string, values map[string]interface{}) int
}

// Constraints is the hard rule gate.
type Constraints interface {
	Validate(text, intent string, priority int, values map[string]interface{}) *policy.Result
	CheckViolation(action, text string) string
}

// Gate is the soft judgment gate.
type Gate interface {
	Evaluate(p *alignment.Proposal) *model.Verdict
}

// Dispatcher selects workflows.
type Dispatcher interface {
	Select(intent string) (workflow.Workflow, error)
}

// HistoryFunc returns historical signals for a request, or nil.
type HistoryFunc func(req *model.Request) *alignment.History

// ContextHistory reads the "risk_signal" request context entry.
func ContextHistory(req *model.Request) *alignment.History {
	if signal := req.String("risk_signal"); signal != "" {
		return &alignment.History{RiskSignal: signal}
	}
	return nil
}

// Orchestrator routes requests through the gate pipeline.
type Orchestrator struct {
	classifier  Classifier
	scorer      Scorer
	constraints Constraints
	gate        Gate
	approvals   approval.Service
	workflows   Dispatcher
	recorder    reflection.Recorder
	tracker     *progress.Tracker
	history     HistoryFunc
	now         clock.Func
	logger      zerolog.Logger
}

// New creates an orchestrator; every collaborator not supplied gets its default.
func New(options ...Option) *Orchestrator {
	ret := &Orchestrator{now: clock.Now, logger: log.Logger, history: ContextHistory}
	for _, option := range options {
		option(ret)
	}
	if ret.classifier == nil {
		ret.classifier = intent.New(nil)
	}
	if ret.scorer == nil {
		ret.scorer = priority.New(nil, 0)
	}
	if ret.constraints == nil {
		ret.constraints = policy.Default()
	}
	if ret.gate == nil {
		ret.gate = alignment.New(ret.constraints, nil)
	}
	if ret.approvals == nil {
		ret.approvals = amemory.New(amemory.WithLogger(ret.logger))
	}
	if ret.workflows == nil {
		ret.workflows = workflow.Builtin(nil)
	}
	if ret.recorder == nil {
		ret.recorder = reflection.New(0, reflection.WithLogger(ret.logger))
	}
	if ret.tracker == nil {
		ret.tracker = progress.New(nil)
	}
	return ret
}

// Approvals returns the approval queue.
func (o *Orchestrator) Approvals() approval.Service { return o.approvals }

// Stats returns routing counters.
func (o *Orchestrator) Stats() progress.Counters { return o.tracker.Snapshot() }

// Route builds a request for text and routes it.
func (o *Orchestrator) Route(ctx context.Context, text string, values map[string]interface{}) (*model.Response, error) {
	req := model.NewRequest(text, values)
	req.CreatedAt = o.now()
	return o.RouteRequest(ctx, req)
}

// RouteRequest runs the pipeline for req. Gate outcomes and workflow failures
// are reported in the response; an error is returned only when the approval
// queue could not store a suspended request.
func (o *Orchestrator) RouteRequest(ctx context.Context, req *model.Request) (*model.Response, error) {
	started := o.now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = started
	}
	ctx, span := tracing.StartSpan(ctx, "route", req.TraceID)
	resp := &model.Response{TraceID: req.TraceID}
	resp.Trail.Append(model.StageStart)
	o.logger.Debug().Str("trace_id", req.TraceID).Msg("route_started")

	resp.Intent = o.classifier.Detect(req.Text)
	resp.Trail.Append(model.StageIntentDetected)
	values := req.Values()
	resp.Priority = o.scorer.Score(resp.Intent, values)
	resp.Trail.Append(model.StagePriorityScored)
	span.WithAttributes(map[string]string{tracing.AttrIntent: resp.Intent}).WithInt(tracing.AttrPriority, resp.Priority)

	constraints := o.constraints
	var gateConstraints alignment.ConstraintChecker
	if override := policy.FromContext(ctx); override != nil {
		constraints = override
		gateConstraints = override
	}
	result := constraints.Validate(req.Text, resp.Intent, resp.Priority, values)
	resp.Trail.Append(model.StageConstraintChecked)
	if !result.Allowed {
		o.logger.Info().Str("trace_id", req.TraceID).Str("intent", resp.Intent).Str("reason", result.Reason).Msg("constraint_blocked")
		resp.Verdict = model.NewVerdict(model.VerdictReject, result.Reason, req.TraceID)
		resp.Status = model.StatusBlocked
		resp.Reason = result.Reason
		resp.Trail.Append(model.StageRejected)
		return o.finish(ctx, span, started, req, resp, progress.Delta{Routed: 1, Blocked: 1}), nil
	}

	action := req.String("action")
	if action == "" {
		action = resp.Intent
	}
	verdict := o.gate.Evaluate(&alignment.Proposal{
		TraceID:     req.TraceID,
		Action:      action,
		Intent:      resp.Intent,
		Text:        req.Text,
		Context:     values,
		History:     o.history(req),
		Constraints: gateConstraints,
	})
	resp.Verdict = verdict
	resp.Trail.Append(model.StageAlignmentEvaluated)
	span.WithAttributes(map[string]string{tracing.AttrVerdict: string(verdict.Kind)})

	switch verdict.Kind {
	case model.VerdictReject:
		resp.Status = model.StatusBlocked
		resp.Reason = verdict.Reason
		resp.Trail.Append(model.StageRejected)
		return o.finish(ctx, span, started, req, resp, progress.Delta{Routed: 1, Blocked: 1}), nil
	case model.VerdictDefer:
		resp.Status = model.StatusDeferred
		resp.Reason = verdict.Reason
		resp.Trail.Append(model.StageDeferred)
		return o.finish(ctx, span, started, req, resp, progress.Delta{Routed: 1, Deferred: 1}), nil
	case model.VerdictRequireApproval:
		err := o.approvals.Add(ctx, &approval.Pending{
			TraceID:   req.TraceID,
			Text:      req.Text,
			Intent:    resp.Intent,
			Priority:  resp.Priority,
			Action:    action,
			Context:   values,
			Verdict:   verdict.Clone(),
			CreatedAt: req.CreatedAt,
		})
		if err != nil {
			o.logger.Error().Err(err).Str("trace_id", req.TraceID).Msg("approval_enqueue_failed")
			resp.Status = model.StatusFailed
			resp.Reason = ReasonWorkflowFailed
			resp.Trail.Append(model.StageFailed)
			o.finish(ctx, span, started, req, resp, progress.Delta{Routed: 1, Failed: 1})
			return resp, fmt.Errorf("failed to enqueue %v for approval: %w", req.TraceID, err)
		}
		o.logger.Info().Str("trace_id", req.TraceID).Str("action", action).Msg("approval_requested")
		resp.Status = model.StatusPendingApproval
		resp.Reason = verdict.Reason
		resp.Trail.Append(model.StageAwaitingApproval)
		return o.finish(ctx, span, started, req, resp, progress.Delta{Routed: 1, Pending: 1}), nil
	}

	if verdict.Kind == model.VerdictAllowWithWarning {
		resp.Warning = verdict.Reason
	}
	resp.Trail.Append(model.StageAllowed)
	delta := o.dispatch(ctx, &workflow.Input{
		TraceID:  req.TraceID,
		Text:     req.Text,
		Intent:   resp.Intent,
		Priority: resp.Priority,
		Context:  values,
	}, resp)
	delta.Routed = 1
	return o.finish(ctx, span, started, req, resp, delta), nil
}

// dispatch selects and executes the workflow for in, filling resp.
func (o *Orchestrator) dispatch(ctx context.Context, in *workflow.Input, resp *model.Response) progress.Delta {
	ctx, span := tracing.StartSpan(ctx, "workflow", in.TraceID)
	w, err := o.workflows.Select(in.Intent)
	var output *workflow.Output
	if err == nil {
		resp.Workflow = w.Name()
		span.WithAttributes(map[string]string{tracing.AttrWorkflow: w.Name()})
		output, err = execute(ctx, w, in)
	}
	tracing.EndSpan(span, err)
	if err != nil {
		resp.Status = model.StatusFailed
		resp.Reason = ReasonWorkflowFailed
		if errors.Is(err, costguard.ErrBudgetExceeded) {
			resp.Reason = ReasonBudgetExceeded
		}
		resp.Trail.Append(model.StageFailed)
		o.logger.Error().Err(err).Str("trace_id", in.TraceID).Str("intent", in.Intent).Str("workflow", resp.Workflow).Msg("workflow_failed")
		return progress.Delta{Failed: 1}
	}
	resp.Status = model.StatusSuccess
	if output != nil {
		resp.Message = output.Message
		resp.Output = output.Metadata
	}
	if resp.Output == nil {
		resp.Output = map[string]interface{}{}
	}
	resp.Trail.Append(model.StageWorkflowExecuted)
	return progress.Delta{Succeeded: 1}
}

// execute runs w converting a panic into an error.
func execute(ctx context.Context, w workflow.Workflow, in *workflow.Input) (output *workflow.Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workflow %v panicked: %v", w.Name(), r)
		}
	}()
	return w.Execute(ctx, in)
}

// finish reflects completed runs, updates counters and closes the span.
func (o *Orchestrator) finish(ctx context.Context, span *tracing.Span, started time.Time, req *model.Request, resp *model.Response, delta progress.Delta) *model.Response {
	if resp.Status != model.StatusPendingApproval {
		o.reflect(ctx, req.TraceID, req.Text, req.Values(), resp)
	}
	elapsed := o.now().Sub(started)
	delta.Latency = elapsed
	o.tracker.Update(delta)

	span.WithAttributes(map[string]string{tracing.AttrStatus: string(resp.Status)})
	var spanErr error
	if resp.Status == model.StatusFailed {
		spanErr = errors.New(resp.Reason)
	}
	tracing.EndSpan(span, spanErr)

	level := zerolog.InfoLevel
	if resp.Status == model.StatusFailed {
		level = zerolog.WarnLevel
	}
	o.logger.WithLevel(level).Str("trace_id", resp.TraceID).
		Str("intent", resp.Intent).
		Int("priority", resp.Priority).
		Str("status", string(resp.Status)).
		Str("workflow", resp.Workflow).
		Bool("resumed", resp.Resumed).
		Dur("latency", elapsed).
		Msg("route_completed")
	return resp
}

func (o *Orchestrator) reflect(ctx context.Context, traceID, text string, values map[string]interface{}, resp *model.Response) {
	output := resp.Message
	if output == "" {
		output = resp.Reason
	}
	err := o.recorder.Record(ctx, &reflection.Entry{
		TraceID:  traceID,
		Input:    text,
		Intent:   resp.Intent,
		Status:   resp.Status,
		Workflow: resp.Workflow,
		Output:   output,
		Context:  values,
	})
	if err != nil {
		o.logger.Warn().Err(err).Str("trace_id", traceID).Msg("reflection_failed")
		return
	}
	resp.Trail.Append(model.StageReflected)
}
