// file: internal/ratelimit/ratelimit_test.go
package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/taskdash/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(max int, window time.Duration) (*Limiter, *testutil.FakeClock) {
	clock := testutil.NewFakeClock()
	return New(max, window, WithClock(clock.Now), WithSleeper(clock.Sleep)), clock
}

func TestNew_AppliesDefaults(t *testing.T) {
	l := New(0, 0)
	assert.Equal(t, DefaultMaxRequests, l.MaxRequests())
	assert.Equal(t, DefaultWindow, l.Window())
}

// At most N calls in one window return without suspending.
func TestWait_AllowsBudgetWithoutSuspending(t *testing.T) {
	l, clock := newTestLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(ctx, ""))
	}
	assert.Empty(t, clock.Sleeps(), "First three calls should not suspend.")
	assert.Equal(t, 0, l.Remaining(""))

	require.NoError(t, l.Wait(ctx, ""))
	require.Len(t, clock.Sleeps(), 1, "Fourth call should suspend once.")
	assert.Equal(t, time.Minute, clock.Sleeps()[0])
	assert.Equal(t, 2, l.Remaining(""), "Fourth call should open a fresh window with count 1.")
}

func TestWait_SuspendsForRemainderOfWindow(t *testing.T) {
	l, clock := newTestLimiter(1, 10*time.Second)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, DefaultIdentifier))
	clock.Advance(4 * time.Second)
	require.NoError(t, l.Wait(ctx, DefaultIdentifier))

	sleeps := clock.Sleeps()
	require.Len(t, sleeps, 1)
	assert.Equal(t, 6*time.Second, sleeps[0])
}

func TestWait_ResetsAfterWindowExpiry(t *testing.T) {
	l, clock := newTestLimiter(2, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "a"))
	require.NoError(t, l.Wait(ctx, "a"))
	clock.Advance(time.Minute)

	require.NoError(t, l.Wait(ctx, "a"))
	assert.Empty(t, clock.Sleeps(), "Call after expiry should return immediately.")
	assert.Equal(t, 1, l.MaxRequests()-l.Remaining("a"), "Counter should restart at 1.")
}

func TestWait_IdentifiersAreIndependent(t *testing.T) {
	l, clock := newTestLimiter(1, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "tenant-a"))
	require.NoError(t, l.Wait(ctx, "tenant-b"))
	assert.Empty(t, clock.Sleeps())
	assert.Equal(t, 0, l.Remaining("tenant-a"))
	assert.Equal(t, 0, l.Remaining("tenant-b"))
}

func TestWait_ContextCanceledWhileWaiting(t *testing.T) {
	l := New(1, time.Hour)
	require.NoError(t, l.Wait(context.Background(), ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Wait(ctx, "")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, l.Remaining(""), "A canceled wait must not consume budget.")
}

func TestWait_ObserverSeesSuspension(t *testing.T) {
	var observed []time.Duration
	clock := testutil.NewFakeClock()
	l := New(1, 30*time.Second,
		WithClock(clock.Now),
		WithSleeper(clock.Sleep),
		WithObserver(func(_ string, d time.Duration) { observed = append(observed, d) }))

	require.NoError(t, l.Wait(context.Background(), ""))
	require.NoError(t, l.Wait(context.Background(), ""))
	assert.Equal(t, []time.Duration{30 * time.Second}, observed)
}

func TestRemaining_UnknownAndExpired(t *testing.T) {
	l, clock := newTestLimiter(5, time.Second)
	assert.Equal(t, 5, l.Remaining("missing"))

	require.NoError(t, l.Wait(context.Background(), "x"))
	assert.Equal(t, 4, l.Remaining("x"))

	clock.Advance(2 * time.Second)
	assert.Equal(t, 5, l.Remaining("x"), "Expired window should report the full budget.")
}

func TestReset_ForgetsWindow(t *testing.T) {
	l, clock := newTestLimiter(1, time.Minute)
	require.NoError(t, l.Wait(context.Background(), ""))
	assert.False(t, l.ResetAt("").IsZero())

	l.Reset("")
	assert.True(t, l.ResetAt("").IsZero())
	require.NoError(t, l.Wait(context.Background(), ""))
	assert.Empty(t, clock.Sleeps(), "Reset should let the next call through immediately.")
}

// Concurrent callers racing an exhausted window must each wait it out.
func TestWait_ConcurrentCallersNeverBypassLimit(t *testing.T) {
	var suspensions atomic.Int32
	l := New(2, 50*time.Millisecond, WithObserver(func(string, time.Duration) {
		suspensions.Add(1)
	}))
	ctx := context.Background()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Wait(ctx, ""))
		}()
	}
	wg.Wait()

	// Six requests at two per window need three windows, and only the first
	// two callers can skip the wait.
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	assert.GreaterOrEqual(t, int(suspensions.Load()), 4)
}

func TestWait_ConcurrentCallersGetExactlyOneWindowOfBudget(t *testing.T) {
	const callers, budget = 40, 5
	errBlocked := errors.New("blocked")

	var suspensions atomic.Int32
	l := New(budget, time.Hour,
		WithSleeper(func(context.Context, time.Duration) error { return errBlocked }),
		WithObserver(func(string, time.Duration) { suspensions.Add(1) }))

	var (
		wg      sync.WaitGroup
		through atomic.Int32
		ready   = make(chan struct{})
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ready
			err := l.Wait(context.Background(), "shared")
			if err == nil {
				through.Add(1)
				return
			}
			assert.ErrorIs(t, err, errBlocked)
		}()
	}
	close(ready)
	wg.Wait()

	assert.Equal(t, int32(budget), through.Load(), "Only one window of budget may pass without suspending.")
	assert.Equal(t, int32(callers-budget), suspensions.Load())
	assert.Equal(t, 0, l.Remaining("shared"))
}
