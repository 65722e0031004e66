// Package memory provides the in-process approval.Service.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/viant/routegate/internal/clock"
	approval "github.com/viant/routegate/service/approval"
	"github.com/viant/routegate/service/dao"
	"github.com/viant/routegate/service/dao/store"
	"github.com/viant/routegate/service/messaging"
	qmem "github.com/viant/routegate/service/messaging/memory"
)

type service struct {
	// mu serialises every read-modify-write on records
	mu      sync.Mutex
	records dao.Service[string, approval.Pending]
	events  messaging.Queue[approval.Event]
	now     clock.Func
	logger  zerolog.Logger
}

func recordKey(p *approval.Pending) string { return p.TraceID }

// New creates an approval service.
func New(options ...Option) approval.Service {
	ret := &service{
		records: store.NewMemoryStore[string, approval.Pending](recordKey),
		events:  qmem.NewQueue[approval.Event](qmem.DefaultConfig()),
		now:     clock.Now,
		logger:  log.Logger,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (s *service) Add(ctx context.Context, rec *approval.Pending) error {
	if rec == nil {
		return dao.ErrNilEntity
	}
	if rec.TraceID == "" {
		return approval.ErrEmptyTraceID
	}
	stored := rec.Clone()
	stored.Status = approval.StatusPending
	stored.DecidedAt = nil
	stored.Resumed = false
	stored.Reason = ""
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	s.mu.Lock()
	err := s.records.Save(ctx, stored)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.publish(ctx, approval.TopicRequestCreated, stored)
	s.logger.Info().Str("trace_id", stored.TraceID).Str("intent", stored.Intent).Msg("approval_requested")
	return nil
}

func (s *service) Get(ctx context.Context, traceID string) (*approval.Pending, error) {
	rec, err := s.load(ctx, traceID)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.Clone(), nil
}

func (s *service) load(ctx context.Context, traceID string) (*approval.Pending, error) {
	if traceID == "" {
		return nil, nil
	}
	rec, err := s.records.Load(ctx, traceID)
	if errors.Is(err, dao.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

func (s *service) Approve(ctx context.Context, traceID, reason string) (*approval.Pending, error) {
	return s.decide(ctx, traceID, approval.StatusApproved, reason)
}

func (s *service) Reject(ctx context.Context, traceID, reason string) (*approval.Pending, error) {
	return s.decide(ctx, traceID, approval.StatusRejected, reason)
}

func (s *service) Resolve(ctx context.Context, traceID string, status approval.Status, reason string) (*approval.Pending, bool, error) {
	return s.transition(ctx, traceID, status, reason, true)
}

func (s *service) decide(ctx context.Context, traceID string, status approval.Status, reason string) (*approval.Pending, error) {
	rec, _, err := s.transition(ctx, traceID, status, reason, false)
	return rec, err
}

// transition sets status; with firstOnly it only moves a pending record.
func (s *service) transition(ctx context.Context, traceID string, status approval.Status, reason string, firstOnly bool) (*approval.Pending, bool, error) {
	if status != approval.StatusApproved && status != approval.StatusRejected {
		return nil, false, fmt.Errorf("approval: unsupported decision %q", status)
	}
	s.mu.Lock()
	rec, err := s.load(ctx, traceID)
	if err != nil || rec == nil {
		s.mu.Unlock()
		return nil, false, err
	}
	if firstOnly && rec.Status != approval.StatusPending {
		s.mu.Unlock()
		return rec.Clone(), false, nil
	}
	updated := rec.Clone()
	decidedAt := s.now()
	updated.Status = status
	updated.Reason = reason
	updated.DecidedAt = &decidedAt
	err = s.records.Save(ctx, updated)
	s.mu.Unlock()
	if err != nil {
		return nil, false, err
	}
	s.publish(ctx, approval.TopicDecisionCreated, updated)
	s.logger.Info().Str("trace_id", traceID).Str("status", string(status)).Msg("approval_decided")
	return updated.Clone(), true, nil
}

func (s *service) MarkResumed(ctx context.Context, traceID string) (*approval.Pending, bool, error) {
	s.mu.Lock()
	rec, err := s.load(ctx, traceID)
	if err != nil || rec == nil {
		s.mu.Unlock()
		return nil, false, err
	}
	if rec.Status != approval.StatusApproved || rec.Resumed {
		s.mu.Unlock()
		return rec.Clone(), false, nil
	}
	updated := rec.Clone()
	updated.Resumed = true
	err = s.records.Save(ctx, updated)
	s.mu.Unlock()
	if err != nil {
		return nil, false, err
	}
	s.publish(ctx, approval.TopicRequestResumed, updated)
	return updated.Clone(), true, nil
}

func (s *service) List(ctx context.Context, filters ...dao.Filter[approval.Pending]) ([]*approval.Pending, error) {
	records, err := s.records.List(ctx, filters...)
	if err != nil {
		return nil, err
	}
	ret := make([]*approval.Pending, 0, len(records))
	for _, rec := range records {
		ret = append(ret, rec.Clone())
	}
	return ret, nil
}

func (s *service) Queue() messaging.Queue[approval.Event] { return s.events }

func (s *service) publish(ctx context.Context, topic string, rec *approval.Pending) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, &approval.Event{Topic: topic, Record: rec.Clone()}); err != nil {
		s.logger.Warn().Err(err).Str("trace_id", rec.TraceID).Str("topic", topic).Msg("approval_event_dropped")
	}
}

var _ approval.Service = (*service)(nil)
