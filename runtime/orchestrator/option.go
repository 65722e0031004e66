package orchestrator

import (
	"github.com/rs/zerolog"
	"github.com/viant/routegate/internal/clock"
	"github.com/viant/routegate/progress"
	"github.com/viant/routegate/reflection"
	"github.com/viant/routegate/service/approval"
)

// Option configures an Orchestrator.
type Option func(o *Orchestrator)

// WithClassifier sets the intent classifier.
func WithClassifier(c Classifier) Option {
	return func(o *Orchestrator) { o.classifier = c }
}

// WithScorer sets the priority scorer.
func WithScorer(s Scorer) Option {
	return func(o *Orchestrator) { o.scorer = s }
}

// WithConstraints sets the hard constraint gate.
func WithConstraints(c Constraints) Option {
	return func(o *Orchestrator) { o.constraints = c }
}

// WithGate sets the soft alignment gate.
func WithGate(g Gate) Option {
	return func(o *Orchestrator) { o.gate = g }
}

// WithApprovals sets the approval queue.
func WithApprovals(svc approval.Service) Option {
	return func(o *Orchestrator) { o.approvals = svc }
}

// WithDispatcher sets the workflow dispatcher.
func WithDispatcher(d Dispatcher) Option {
	return func(o *Orchestrator) { o.workflows = d }
}

// WithRecorder sets the reflection recorder.
func WithRecorder(r reflection.Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithTracker sets the routing counters.
func WithTracker(t *progress.Tracker) Option {
	return func(o *Orchestrator) { o.tracker = t }
}

// WithHistory sets the historical risk lookup.
func WithHistory(fn HistoryFunc) Option {
	return func(o *Orchestrator) { o.history = fn }
}

// WithClock sets the time source used for latency and request timestamps.
func WithClock(now clock.Func) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}
