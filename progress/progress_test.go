package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker_Update(t *testing.T) {
	var last Counters
	tracker := New(func(c Counters) { last = c })

	tracker.Update(Delta{Routed: 1, Succeeded: 1, Latency: 10 * time.Millisecond})
	tracker.Update(Delta{Routed: 1, Blocked: 1, Latency: 30 * time.Millisecond})

	snapshot := tracker.Snapshot()
	assert.Equal(t, 2, snapshot.Routed)
	assert.Equal(t, 1, snapshot.Succeeded)
	assert.Equal(t, 1, snapshot.Blocked)
	assert.Equal(t, 20*time.Millisecond, snapshot.AverageLatency())
	assert.Equal(t, snapshot, last)

	tracker.OnChange(nil)
	tracker.Update(Delta{Failed: 1})
	assert.Equal(t, 0, last.Failed)
}

func TestTracker_Concurrent(t *testing.T) {
	tracker := New(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Update(Delta{Routed: 1, Pending: 1})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, tracker.Snapshot().Pending)
}

func TestContext(t *testing.T) {
	tracker := New(nil)
	ctx := WithTracker(context.Background(), tracker)
	UpdateCtx(ctx, Delta{Deferred: 2})
	UpdateCtx(context.Background(), Delta{Deferred: 5})
	assert.Equal(t, 2, tracker.Snapshot().Deferred)

	var nilTracker *Tracker
	nilTracker.Update(Delta{Routed: 1})
	assert.Equal(t, Counters{}, nilTracker.Snapshot())
	assert.Equal(t, time.Duration(0), Counters{}.AverageLatency())
}
