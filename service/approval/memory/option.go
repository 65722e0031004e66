package memory

import (
	"github.com/rs/zerolog"
	"github.com/viant/routegate/internal/clock"
	approval "github.com/viant/routegate/service/approval"
	"github.com/viant/routegate/service/dao"
	"github.com/viant/routegate/service/messaging"
)

type Option func(*service)

// WithStore replaces the in-memory record store, e.g. with a file store.
func WithStore(store dao.Service[string, approval.Pending]) Option {
	return func(s *service) { s.records = store }
}

// WithQueue replaces the event queue.
func WithQueue(q messaging.Queue[approval.Event]) Option {
	return func(s *service) { s.events = q }
}

// WithClock sets the time source.
func WithClock(now clock.Func) Option {
	return func(s *service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *service) { s.logger = logger }
}
