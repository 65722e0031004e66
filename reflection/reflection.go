// Package reflection is the append-only audit of completed routing runs.
// Entries are kept in a bounded in-memory window and optionally appended to a
// durable journal.
package reflection

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/viant/routegate/internal/clock"
	"github.com/viant/routegate/model"
)

// DefaultRetention is the number of entries kept in memory.
const DefaultRetention = 1000

// Entry records one completed routing decision.
type Entry struct {
	TraceID   string                 `json:"trace_id"`
	Input     string                 `json:"input"`
	Intent    string                 `json:"intent"`
	Status    model.Status           `json:"status"`
	Workflow  string                 `json:"workflow,omitempty"`
	Output    string                 `json:"output,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Recorder records entries.
type Recorder interface {
	Record(ctx context.Context, entry *Entry) error
}

// Journal durably stores entries.
type Journal interface {
	Append(ctx context.Context, entry *Entry) error
	Recent(ctx context.Context, limit int) ([]*Entry, error)
}

// Log is a bounded ring of entries.
type Log struct {
	mu      sync.RWMutex
	entries []*Entry
	next    int
	full    bool
	journal Journal
	now     clock.Func
	logger  zerolog.Logger
}

// Option configures a Log.
type Option func(*Log)

// WithJournal appends every entry to j as well.
func WithJournal(j Journal) Option {
	return func(l *Log) { l.journal = j }
}

// WithClock sets the time source used for entries without timestamp.
func WithClock(now clock.Func) Option {
	return func(l *Log) { l.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// New creates a log keeping the last retention entries.
func New(retention int, opts ...Option) *Log {
	if retention <= 0 {
		retention = DefaultRetention
	}
	ret := &Log{entries: make([]*Entry, retention), now: clock.Now, logger: log.Logger}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Record appends a copy of entry.
func (l *Log) Record(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return nil
	}
	copied := *entry
	copied.Context = model.CopyValues(entry.Context)
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = l.now()
	}
	l.mu.Lock()
	l.entries[l.next] = &copied
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
	l.mu.Unlock()

	if l.journal != nil {
		if err := l.journal.Append(ctx, &copied); err != nil {
			l.logger.Warn().Err(err).Str("trace_id", copied.TraceID).Msg("reflection_journal_failed")
			return err
		}
	}
	return nil
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.full {
		return len(l.entries)
	}
	return l.next
}

// Entries returns retained entries oldest first.
func (l *Log) Entries() []*Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var ret []*Entry
	if l.full {
		ret = append(ret, l.entries[l.next:]...)
	}
	ret = append(ret, l.entries[:l.next]...)
	out := make([]*Entry, len(ret))
	for i, e := range ret {
		copied := *e
		out[i] = &copied
	}
	return out
}

// Lookup returns the retained entries of a trace id, oldest first.
func (l *Log) Lookup(traceID string) []*Entry {
	var ret []*Entry
	for _, e := range l.Entries() {
		if e.TraceID == traceID {
			ret = append(ret, e)
		}
	}
	return ret
}

var _ Recorder = (*Log)(nil)
