// Package progress keeps aggregated routing counters (routed, blocked,
// deferred and so on) plus cumulative latency. The tracker can travel in a
// context so every component receiving it can update the counters via the
// Delta helper without a global registry.
package progress

import (
	"context"
	"sync"
	"time"
)

// Delta represents an incremental counter change.
type Delta struct {
	Routed    int
	Blocked   int
	Deferred  int
	Pending   int
	Succeeded int
	Failed    int
	Resumed   int
	Latency   time.Duration
}

// Counters is a point-in-time copy of the tracker.
type Counters struct {
	StartedAt time.Time     `json:"started_at"`
	Routed    int           `json:"routed"`
	Blocked   int           `json:"blocked"`
	Deferred  int           `json:"deferred"`
	Pending   int           `json:"pending_approval"`
	Succeeded int           `json:"success"`
	Failed    int           `json:"failed"`
	Resumed   int           `json:"resumed"`
	Latency   time.Duration `json:"latency_ns"`
}

// AverageLatency returns mean latency per routed or resumed request.
func (c Counters) AverageLatency() time.Duration {
	n := c.Routed + c.Resumed
	if n == 0 {
		return 0
	}
	return c.Latency / time.Duration(n)
}

// Tracker keeps aggregated counters. It is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	counters Counters
	onChange func(Counters)
}

// New creates a tracker.
func New(onChange func(Counters)) *Tracker {
	return &Tracker{counters: Counters{StartedAt: time.Now()}, onChange: onChange}
}

// Update applies the supplied delta. The onChange callback, if any, is
// invoked with a copy outside the critical section.
func (t *Tracker) Update(d Delta) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.counters.Routed += d.Routed
	t.counters.Blocked += d.Blocked
	t.counters.Deferred += d.Deferred
	t.counters.Pending += d.Pending
	t.counters.Succeeded += d.Succeeded
	t.counters.Failed += d.Failed
	t.counters.Resumed += d.Resumed
	t.counters.Latency += d.Latency
	snapshot := t.counters
	cb := t.onChange
	t.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the counters.
func (t *Tracker) Snapshot() Counters {
	if t == nil {
		return Counters{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counters
}

// OnChange registers a callback invoked after every Update. Passing nil
// disables it; subsequent calls overwrite the previous value.
func (t *Tracker) OnChange(cb func(Counters)) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.onChange = cb
	t.mu.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithTracker embeds t in a derived context.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey, t)
}

// FromContext extracts the tracker from ctx.
func FromContext(ctx context.Context) (*Tracker, bool) {
	if ctx == nil {
		return nil, false
	}
	t, ok := ctx.Value(trackerKey).(*Tracker)
	return t, ok
}

// UpdateCtx applies d to the tracker carried by ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if t, ok := FromContext(ctx); ok {
		t.Update(d)
	}
}
