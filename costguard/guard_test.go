package costguard

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/routegate/internal/clock"
	"github.com/viant/routegate/service/dao/fs"
	"github.com/viant/routegate/service/dao/store"
)

func TestEstimateTokens(t *testing.T) {
	type testCase struct {
		name     string
		text     string
		expected int64
	}
	tests := []testCase{
		{name: "empty", text: "", expected: 1},
		{name: "short", text: "abc", expected: 1},
		{name: "sixteen", text: "abcdefghijklmnop", expected: 4},
		{name: "runes", text: "नमस्ते नमस्ते", expected: 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, EstimateTokens(tc.text))
		})
	}
}

func TestGuard_DailyCeilingAndReset(t *testing.T) {
	ctx := context.Background()
	manual := clock.NewManual(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	guard := New(WithClock(manual.Now), WithLimits("groq", Limits{DailyTokens: 100, CostPer1K: 1}))

	require.NoError(t, guard.AssertAllowed(ctx, "groq", 60))
	require.NoError(t, guard.RecordUsage(ctx, "groq", 60))
	require.NoError(t, guard.AssertAllowed(ctx, "groq", 40))
	require.NoError(t, guard.RecordUsage(ctx, "groq", 40))

	err := guard.AssertAllowed(ctx, "groq", 1)
	assert.ErrorIs(t, err, ErrBudgetExceeded)

	// later the same day: still exhausted
	manual.Advance(15 * time.Hour)
	assert.ErrorIs(t, guard.AssertAllowed(ctx, "groq", 1), ErrBudgetExceeded)

	// next day: reset exactly once
	manual.Advance(2 * time.Hour)
	require.NoError(t, guard.AssertAllowed(ctx, "groq", 1))
	snapshot := guard.Snapshot(ctx, "groq")
	assert.Equal(t, int64(0), snapshot.TokensUsed)
	assert.Equal(t, clock.Day(manual.Now()), snapshot.LastReset)

	require.NoError(t, guard.RecordUsage(ctx, "groq", 10))
	require.NoError(t, guard.AssertAllowed(ctx, "groq", 1))
	assert.Equal(t, int64(10), guard.Snapshot(ctx, "groq").TokensUsed)
}

func TestGuard_CostCeiling(t *testing.T) {
	ctx := context.Background()
	guard := New(WithDefaultLimits(Limits{DailyCost: 1, CostPer1K: 0.5}))

	require.NoError(t, guard.RecordUsage(ctx, "openai", 1500))
	assert.InDelta(t, 0.75, guard.Snapshot(ctx, "openai").CostUsed, 0.0001)
	assert.NoError(t, guard.AssertAllowed(ctx, "openai", 400))
	assert.ErrorIs(t, guard.AssertAllowed(ctx, "openai", 600), ErrBudgetExceeded)
	assert.InDelta(t, 0.05, guard.EstimateCost("openai", 100), 0.0001)
}

func TestGuard_ProvidersAreIndependent(t *testing.T) {
	ctx := context.Background()
	guard := New(WithDefaultLimits(Limits{DailyTokens: 10}))
	require.NoError(t, guard.RecordUsage(ctx, "a", 10))
	assert.ErrorIs(t, guard.AssertAllowed(ctx, "a", 1), ErrBudgetExceeded)
	assert.NoError(t, guard.AssertAllowed(ctx, "b", 10))

	snapshots := guard.Snapshots(ctx)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "a", snapshots[0].Provider)
	assert.Equal(t, "b", snapshots[1].Provider)
}

func TestGuard_Unlimited(t *testing.T) {
	guard := New(WithDefaultLimits(Limits{}))
	assert.NoError(t, guard.AssertAllowed(context.Background(), "local", 1<<40))
}

func TestGuard_ReserveCommitRelease(t *testing.T) {
	ctx := context.Background()
	guard := New(WithDefaultLimits(Limits{DailyTokens: 100}))

	first, err := guard.Reserve(ctx, "groq", 70)
	require.NoError(t, err)
	_, err = guard.Reserve(ctx, "groq", 40)
	assert.ErrorIs(t, err, ErrBudgetExceeded)
	assert.Equal(t, int64(70), guard.Snapshot(ctx, "groq").ReservedTokens)

	require.NoError(t, first.Commit(ctx, 20))
	require.NoError(t, first.Commit(ctx, 20))
	snapshot := guard.Snapshot(ctx, "groq")
	assert.Equal(t, int64(20), snapshot.TokensUsed)
	assert.Equal(t, int64(0), snapshot.ReservedTokens)

	second, err := guard.Reserve(ctx, "groq", 80)
	require.NoError(t, err)
	require.NoError(t, second.Release(ctx))
	assert.Equal(t, int64(20), guard.Snapshot(ctx, "groq").TokensUsed)
	assert.Equal(t, int64(0), guard.Snapshot(ctx, "groq").ReservedTokens)
}

func TestGuard_ReserveConcurrent(t *testing.T) {
	ctx := context.Background()
	guard := New(WithDefaultLimits(Limits{DailyTokens: 50}))
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reservation, err := guard.Reserve(ctx, "groq", 10)
			if err != nil {
				return
			}
			mu.Lock()
			admitted++
			mu.Unlock()
			_ = reservation.Commit(ctx, 10)
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, admitted)
	assert.Equal(t, int64(50), guard.Snapshot(ctx, "groq").TokensUsed)
}

func TestGuard_ReservationAcrossReset(t *testing.T) {
	ctx := context.Background()
	manual := clock.NewManual(time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC))
	guard := New(WithClock(manual.Now), WithDefaultLimits(Limits{DailyTokens: 100}))

	reservation, err := guard.Reserve(ctx, "groq", 30)
	require.NoError(t, err)
	manual.Advance(2 * time.Minute)
	require.NoError(t, reservation.Commit(ctx, 25))

	snapshot := guard.Snapshot(ctx, "groq")
	assert.Equal(t, int64(25), snapshot.TokensUsed)
	assert.Equal(t, int64(0), snapshot.ReservedTokens)
}

func TestGuard_Store(t *testing.T) {
	ctx := context.Background()
	manual := clock.NewManual(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	base := filepath.Join(t.TempDir(), "ledgers")
	key := func(l *Ledger) string { return l.Provider }

	ledgers, err := fs.New[Ledger](ctx, base, key)
	require.NoError(t, err)
	guard := New(WithClock(manual.Now), WithStore(ledgers), WithDefaultLimits(Limits{DailyTokens: 100}))
	require.NoError(t, guard.RecordUsage(ctx, "groq", 90))
	_, err = guard.Reserve(ctx, "groq", 5)
	require.NoError(t, err)

	// a restarted guard picks up usage but not in-flight reservations
	reopened, err := fs.New[Ledger](ctx, base, key)
	require.NoError(t, err)
	restarted := New(WithClock(manual.Now), WithStore(reopened), WithDefaultLimits(Limits{DailyTokens: 100}))
	snapshot := restarted.Snapshot(ctx, "groq")
	assert.Equal(t, int64(90), snapshot.TokensUsed)
	assert.Equal(t, int64(0), snapshot.ReservedTokens)
	assert.ErrorIs(t, restarted.AssertAllowed(ctx, "groq", 11), ErrBudgetExceeded)

	manual.Advance(24 * time.Hour)
	assert.NoError(t, restarted.AssertAllowed(ctx, "groq", 100))
}

func TestGuard_MemoryStoreSnapshots(t *testing.T) {
	ctx := context.Background()
	ledgers := store.NewMemoryStore[string, Ledger](func(l *Ledger) string { return l.Provider })
	require.NoError(t, ledgers.Save(ctx, &Ledger{Provider: "stored", TokensUsed: 5, LastReset: clock.Day(time.Now())}))
	guard := New(WithStore(ledgers))
	snapshots := guard.Snapshots(ctx)
	require.Len(t, snapshots, 1)
	assert.Equal(t, int64(5), snapshots[0].TokensUsed)
}
