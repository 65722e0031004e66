package routegate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/viant/routegate/alignment"
	"github.com/viant/routegate/costguard"
	"github.com/viant/routegate/intent"
	"github.com/viant/routegate/internal/clock"
	"github.com/viant/routegate/llm"
	"github.com/viant/routegate/model"
	"github.com/viant/routegate/policy"
	"github.com/viant/routegate/priority"
	"github.com/viant/routegate/progress"
	"github.com/viant/routegate/reflection"
	"github.com/viant/routegate/runtime/orchestrator"
	"github.com/viant/routegate/service/approval"
	amemory "github.com/viant/routegate/service/approval/memory"
	"github.com/viant/routegate/service/dao/fs"
	"github.com/viant/routegate/service/messaging"
	"github.com/viant/routegate/tracing"
	"github.com/viant/routegate/workflow"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Service wires the routing pipeline.
type Service struct {
	config         *Config
	logger         zerolog.Logger
	now            clock.Func
	extraProviders []llm.Provider
	extraWorkflows []workflow.Workflow
	routes         map[string]string
	scorer         alignment.Scorer
	history        orchestrator.HistoryFunc
	exporter       sdktrace.SpanExporter

	approvalHandler messaging.Handler[approval.Event]
	listener        *messaging.Listener[approval.Event]

	guard        *costguard.Guard
	providers    *llm.Registry
	workflows    *workflow.Registry
	approvals    approval.Service
	reflections  *reflection.Log
	journal      *reflection.SQLiteJournal
	tracker      *progress.Tracker
	orchestrator *orchestrator.Orchestrator
}

// New creates a service.
func New(options ...Option) (*Service, error) {
	ret := &Service{config: DefaultConfig(), logger: log.Logger, now: clock.Now}
	for _, option := range options {
		option(ret)
	}
	if err := ret.init(context.Background()); err != nil {
		_ = ret.Close()
		return nil, err
	}
	return ret, nil
}

func (s *Service) init(ctx context.Context) error {
	cfg := s.config
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.initTracing(); err != nil {
		return err
	}
	if err := s.initGuard(ctx); err != nil {
		return err
	}
	if err := s.initProviders(); err != nil {
		return err
	}
	s.workflows = workflow.Builtin(s.providers)
	for _, w := range s.extraWorkflows {
		s.workflows.Register(w)
	}
	for intentName, name := range s.routes {
		if err := s.workflows.Route(intentName, name); err != nil {
			return err
		}
	}
	if err := s.initApprovals(ctx); err != nil {
		return err
	}
	if s.approvalHandler != nil && s.approvals.Queue() != nil {
		s.listener = messaging.NewListener[approval.Event](s.approvals.Queue(), s.approvalHandler).WithLogger(s.logger)
		s.listener.Start(context.Background())
	}
	if err := s.initReflections(); err != nil {
		return err
	}

	var classifierOptions []intent.Option
	if cfg.Intent.Empty != "" {
		classifierOptions = append(classifierOptions, intent.WithEmptyLabel(cfg.Intent.Empty))
	}
	if cfg.Intent.Fallback != "" {
		classifierOptions = append(classifierOptions, intent.WithFallback(cfg.Intent.Fallback))
	}
	constraints := policy.FromConfig(&cfg.Policy)
	scorer := s.scorer
	if scorer == nil && len(cfg.Alignment.Rules) > 0 {
		scorer = alignment.NewKeywordScorer(cfg.Alignment.Rules...)
	}
	s.tracker = progress.New(nil)
	options := []orchestrator.Option{
		orchestrator.WithClassifier(intent.New(cfg.Intent.Rules, classifierOptions...)),
		orchestrator.WithScorer(priority.New(cfg.Priority.Table, cfg.Priority.Default)),
		orchestrator.WithConstraints(constraints),
		orchestrator.WithGate(alignment.New(constraints, scorer, cfg.Alignment.FounderActions...)),
		orchestrator.WithApprovals(s.approvals),
		orchestrator.WithDispatcher(s.workflows),
		orchestrator.WithRecorder(s.reflections),
		orchestrator.WithTracker(s.tracker),
		orchestrator.WithClock(s.now),
		orchestrator.WithLogger(s.logger),
	}
	if s.history != nil {
		options = append(options, orchestrator.WithHistory(s.history))
	}
	s.orchestrator = orchestrator.New(options...)
	return nil
}

func (s *Service) initTracing() error {
	cfg := s.config.Tracing
	if s.exporter != nil {
		return tracing.InitWithExporter(cfg.Service, cfg.Version, s.exporter)
	}
	if cfg.Enabled {
		return tracing.Init(cfg.Service, cfg.Version, cfg.OutputFile)
	}
	return nil
}

func (s *Service) initGuard(ctx context.Context) error {
	budget := s.config.Budget
	options := []costguard.Option{
		costguard.WithClock(s.now),
		costguard.WithDefaultLimits(budget.Default),
		costguard.WithLogger(s.logger),
	}
	for name, limits := range budget.Providers {
		options = append(options, costguard.WithLimits(name, limits))
	}
	if budget.StoreURL != "" {
		store, err := fs.New[costguard.Ledger](ctx, budget.StoreURL, func(l *costguard.Ledger) string { return l.Provider })
		if err != nil {
			return fmt.Errorf("failed to open budget store: %w", err)
		}
		options = append(options, costguard.WithStore(store))
	}
	s.guard = costguard.New(options...)
	return nil
}

func (s *Service) initProviders() error {
	s.providers = llm.NewRegistry()
	for _, cfg := range s.config.Providers {
		p, err := newProvider(cfg)
		if err != nil {
			return err
		}
		s.providers.Register(llm.Guard(p, s.guard,
			llm.WithRateLimit(cfg.RequestsPerSecond, cfg.Burst),
			llm.WithGuardLogger(s.logger)))
	}
	for _, p := range s.extraProviders {
		s.providers.Register(llm.Guard(p, s.guard, llm.WithGuardLogger(s.logger)))
	}
	if len(s.providers.Names()) == 0 {
		s.providers.Register(llm.Guard(llm.NewStatic(KindStatic, ""), s.guard, llm.WithGuardLogger(s.logger)))
	}
	if primary := s.config.Primary; primary != "" {
		if err := s.providers.SetPrimary(primary); err != nil {
			return err
		}
	}
	return nil
}

func newProvider(cfg ProviderConfig) (llm.Provider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" && cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
	}
	switch strings.ToLower(cfg.Kind) {
	case KindStatic:
		return llm.NewStatic(cfg.Name, cfg.Reply), nil
	case KindOpenAI, KindGroq:
		baseURL := cfg.BaseURL
		if baseURL == "" && strings.EqualFold(cfg.Kind, KindGroq) {
			baseURL = GroqBaseURL
		}
		return llm.NewOpenAI(llm.OpenAIConfig{
			Name:      cfg.Name,
			APIKey:    apiKey,
			BaseURL:   baseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			System:    cfg.System,
		})
	case KindAnthropic:
		return llm.NewAnthropic(llm.AnthropicConfig{
			Name:      cfg.Name,
			APIKey:    apiKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			System:    cfg.System,
		})
	}
	return nil, fmt.Errorf("unsupported provider kind: %v", cfg.Kind)
}

func (s *Service) initApprovals(ctx context.Context) error {
	if s.approvals != nil {
		return nil
	}
	options := []amemory.Option{amemory.WithClock(s.now), amemory.WithLogger(s.logger)}
	if URL := s.config.Approval.StoreURL; URL != "" {
		store, err := fs.New[approval.Pending](ctx, URL, func(p *approval.Pending) string { return p.TraceID })
		if err != nil {
			return fmt.Errorf("failed to open approval store: %w", err)
		}
		options = append(options, amemory.WithStore(store))
	}
	s.approvals = amemory.New(options...)
	return nil
}

func (s *Service) initReflections() error {
	options := []reflection.Option{reflection.WithClock(s.now), reflection.WithLogger(s.logger)}
	if path := s.config.Reflection.SQLitePath; path != "" {
		journal, err := reflection.OpenSQLite(path)
		if err != nil {
			return err
		}
		s.journal = journal
		options = append(options, reflection.WithJournal(journal))
	}
	s.reflections = reflection.New(s.config.Reflection.Retention, options...)
	return nil
}

// Route routes text with its request context.
func (s *Service) Route(ctx context.Context, text string, values map[string]interface{}) (*model.Response, error) {
	return s.orchestrator.Route(ctx, text, values)
}

// Approve approves a pending request and resumes it.
func (s *Service) Approve(ctx context.Context, traceID, reason string) (*model.Response, error) {
	return s.orchestrator.Approve(ctx, traceID, reason)
}

// Reject rejects a pending request.
func (s *Service) Reject(ctx context.Context, traceID, reason string) (*model.Response, error) {
	return s.orchestrator.Reject(ctx, traceID, reason)
}

// Resume dispatches a request approved through the approval queue directly.
func (s *Service) Resume(ctx context.Context, traceID string) (*model.Response, error) {
	return s.orchestrator.Resume(ctx, traceID)
}

// AutoApprove approves every pending request as it is polled and resumes it
// through the pipeline. It returns stop(); call it (or cancel ctx) to exit.
func (s *Service) AutoApprove(ctx context.Context, interval time.Duration) (stop func()) {
	return approval.AutoApprove(ctx, s.approvals, interval, func(rec *approval.Pending) {
		if _, err := s.orchestrator.Resume(ctx, rec.TraceID); err != nil {
			s.logger.Error().Err(err).Str("trace_id", rec.TraceID).Msg("auto_resume_failed")
		}
	})
}

// Pending lists requests awaiting a founder decision.
func (s *Service) Pending(ctx context.Context) ([]*approval.Pending, error) {
	return approval.ListPending(ctx, s.approvals)
}

// Approvals returns the approval queue.
func (s *Service) Approvals() approval.Service { return s.approvals }

// Providers returns the guarded provider registry.
func (s *Service) Providers() *llm.Registry { return s.providers }

// Workflows returns the workflow registry.
func (s *Service) Workflows() *workflow.Registry { return s.workflows }

// Budget reports today's usage per provider.
func (s *Service) Budget(ctx context.Context) []costguard.Snapshot {
	return s.guard.Snapshots(ctx)
}

// Guard returns the cost guard.
func (s *Service) Guard() *costguard.Guard { return s.guard }

// Stats returns routing counters.
func (s *Service) Stats() progress.Counters { return s.tracker.Snapshot() }

// Health checks every provider; a nil value means healthy.
func (s *Service) Health(ctx context.Context) map[string]error {
	return s.providers.Healthy(ctx)
}

// Reflections returns the in-memory reflection entries, oldest first.
func (s *Service) Reflections() []*reflection.Entry { return s.reflections.Entries() }

// RecentReflections reads the journal newest first, or the in-memory ring
// when no journal is configured.
func (s *Service) RecentReflections(ctx context.Context, limit int) ([]*reflection.Entry, error) {
	if s.journal != nil {
		return s.journal.Recent(ctx, limit)
	}
	entries := s.reflections.Entries()
	ret := make([]*reflection.Entry, 0, len(entries))
	for i := len(entries) - 1; i >= 0 && (limit <= 0 || len(ret) < limit); i-- {
		ret = append(ret, entries[i])
	}
	return ret, nil
}

// Close stops the approval listener and releases the reflection journal.
func (s *Service) Close() error {
	if s.listener != nil {
		s.listener.Stop()
		s.listener = nil
	}
	var errs []error
	if s.journal != nil {
		errs = append(errs, s.journal.Close())
		s.journal = nil
	}
	return errors.Join(errs...)
}
