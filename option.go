package routegate

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/routegate/alignment"
	"github.com/viant/routegate/internal/clock"
	"github.com/viant/routegate/llm"
	"github.com/viant/routegate/runtime/orchestrator"
	"github.com/viant/routegate/service/approval"
	"github.com/viant/routegate/service/messaging"
	"github.com/viant/routegate/workflow"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option represents a Service option
type Option func(s *Service)

// WithConfig sets the configuration; nil keeps DefaultConfig.
func WithConfig(cfg *Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock sets the time source for budgets, approvals and reflections.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = clock.Func(now) }
}

// WithProvider registers an additional generation provider. It is wrapped by
// the cost guard like every configured provider.
func WithProvider(p llm.Provider) Option {
	return func(s *Service) { s.extraProviders = append(s.extraProviders, p) }
}

// WithWorkflow registers a workflow, replacing a built-in one of the same name.
func WithWorkflow(w workflow.Workflow) Option {
	return func(s *Service) { s.extraWorkflows = append(s.extraWorkflows, w) }
}

// WithRoute maps an intent onto a registered workflow name.
func WithRoute(intent, workflowName string) Option {
	return func(s *Service) {
		if s.routes == nil {
			s.routes = map[string]string{}
		}
		s.routes[intent] = workflowName
	}
}

// WithScorer sets the alignment scorer, overriding configured rules.
func WithScorer(scorer alignment.Scorer) Option {
	return func(s *Service) { s.scorer = scorer }
}

// WithHistory sets the historical risk lookup.
func WithHistory(fn orchestrator.HistoryFunc) Option {
	return func(s *Service) { s.history = fn }
}

// WithApprovalService sets the approval queue.
func WithApprovalService(svc approval.Service) Option {
	return func(s *Service) { s.approvals = svc }
}

// WithTracingExporter installs an OpenTelemetry exporter.
func WithTracingExporter(exporter sdktrace.SpanExporter) Option {
	return func(s *Service) { s.exporter = exporter }
}

// WithApprovalHandler consumes approval events (request created, decided,
// resumed), e.g. to notify the founder. Failed events are retried.
func WithApprovalHandler(handler messaging.Handler[approval.Event]) Option {
	return func(s *Service) { s.approvalHandler = handler }
}
