package emitter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divinity10/GLADyS-sub004/event"
	"github.com/Divinity10/GLADyS-sub004/flow"
	"github.com/Divinity10/GLADyS-sub004/testutil"
)

func normalEvent(id string) *event.Event {
	return &event.Event{ID: id, Source: "game-sensor", Timestamp: time.Now()}
}

func threatEvent(id string) *event.Event {
	e := normalEvent(id)
	return e.WithSalience(event.Salience{Threat: 0.9})
}

func TestModeDerivation(t *testing.T) {
	fake := testutil.NewFakeTransport()

	e1, err := New("a", fake)
	require.NoError(t, err)
	assert.Equal(t, ModeImmediate, e1.Mode())

	e2, err := New("b", fake, WithFlushInterval(time.Second))
	require.NoError(t, err)
	assert.Equal(t, ModeScheduled, e2.Mode())

	e3, err := New("c", fake, WithFlushInterval(time.Second), WithThreatBypass(true))
	require.NoError(t, err)
	assert.Equal(t, ModeHybrid, e3.Mode())
}

func TestImmediateModePublishesSynchronously(t *testing.T) {
	fake := testutil.NewFakeTransport()
	e, err := New("game-sensor", fake)
	require.NoError(t, err)
	defer e.Close()

	ok := e.Emit(context.Background(), normalEvent("e1"))
	assert.True(t, ok)
	assert.Equal(t, 1, fake.PublishCount())
	assert.Equal(t, int64(1), e.Published())
}

func TestSuppressedEventIsCountedNotPublished(t *testing.T) {
	fake := testutil.NewFakeTransport()
	clock := testutil.NewFakeClock(time.Now())
	e, err := New("game-sensor", fake,
		WithStrategy(flow.NewTokenBucket(1, time.Hour, flow.WithClock(clock))))
	require.NoError(t, err)
	defer e.Close()

	assert.True(t, e.Emit(context.Background(), normalEvent("e1")))
	assert.False(t, e.Emit(context.Background(), normalEvent("e2")), "budget exhausted")

	assert.Equal(t, 1, fake.PublishCount())
	assert.Equal(t, int64(1), e.Published())
	assert.Equal(t, int64(1), e.Suppressed())
}

func TestScheduledModeBuffersUntilFlush(t *testing.T) {
	fake := testutil.NewFakeTransport()
	e, err := New("game-sensor", fake, WithFlushInterval(20*time.Millisecond))
	require.NoError(t, err)

	ctx := context.Background()
	e.Start(ctx)

	require.True(t, e.Emit(ctx, normalEvent("e1")))
	require.True(t, e.Emit(ctx, normalEvent("e2")))
	assert.Equal(t, 0, fake.PublishCount(), "nothing leaves before the timer fires")

	require.Eventually(t, func() bool {
		return fake.PublishCount() == 2
	}, time.Second, 5*time.Millisecond)

	batches := fake.Batches()
	require.Len(t, batches, 1)
	assert.Equal(t, "e1", batches[0][0].ID, "flush preserves arrival order")
	assert.Equal(t, "e2", batches[0][1].ID)

	require.NoError(t, e.Close())
}

func TestCloseFlushesBufferedEvents(t *testing.T) {
	fake := testutil.NewFakeTransport()
	e, err := New("game-sensor", fake, WithFlushInterval(time.Hour))
	require.NoError(t, err)

	ctx := context.Background()
	e.Start(ctx)

	require.True(t, e.Emit(ctx, normalEvent("e1")))
	require.True(t, e.Emit(ctx, normalEvent("e2")))

	require.NoError(t, e.Close())
	assert.Equal(t, 2, fake.PublishCount(), "shutdown must not lose buffered events")
}

func TestCloseOnEmptyBufferIsSafe(t *testing.T) {
	fake := testutil.NewFakeTransport()
	e, err := New("game-sensor", fake, WithFlushInterval(time.Hour))
	require.NoError(t, err)
	e.Start(context.Background())

	require.NoError(t, e.Close())
	require.NoError(t, e.Close(), "double close is a no-op")
	assert.Equal(t, 0, fake.PublishCount())
}

func TestHybridThreatBypassScenario(t *testing.T) {
	// Hybrid dispatcher, rate limit 1 token per 10s: a normal event takes
	// the only token, then a threat event still goes straight out.
	fake := testutil.NewFakeTransport()
	clock := testutil.NewFakeClock(time.Now())
	e, err := New("game-sensor", fake,
		WithFlushInterval(600*time.Millisecond),
		WithThreatBypass(true),
		WithStrategy(flow.NewTokenBucket(1, 10*time.Second, flow.WithClock(clock))))
	require.NoError(t, err)

	ctx := context.Background()
	e.Start(ctx)

	require.True(t, e.Emit(ctx, normalEvent("routine")))
	require.True(t, e.Emit(ctx, threatEvent("alarm")))

	// The threat left immediately; the routine event leaves on the flush.
	assert.Equal(t, 1, fake.PublishCount())
	assert.Equal(t, "alarm", fake.Published()[0].ID)

	require.Eventually(t, func() bool {
		return fake.PublishCount() == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, e.Close())
	assert.Equal(t, int64(2), e.Published())
	assert.Equal(t, int64(0), e.Suppressed(), "threats are never suppressed")
}

func TestThreatBypassesAdmissionInImmediateMode(t *testing.T) {
	fake := testutil.NewFakeTransport()
	clock := testutil.NewFakeClock(time.Now())
	tb := flow.NewTokenBucket(1, time.Hour, flow.WithClock(clock))
	tb.Consume(1) // empty budget

	e, err := New("game-sensor", fake, WithStrategy(tb))
	require.NoError(t, err)
	defer e.Close()

	assert.True(t, e.Emit(context.Background(), threatEvent("alarm")))
	assert.Equal(t, 1, fake.PublishCount())
	assert.Equal(t, int64(0), e.Suppressed())
}

func TestPublishFailureIsSwallowed(t *testing.T) {
	fake := testutil.NewFakeTransport()
	fake.SetPublishError(errors.New("gateway unreachable"))

	e, err := New("game-sensor", fake, WithPublishTimeout(50*time.Millisecond))
	require.NoError(t, err)
	defer e.Close()

	assert.NotPanics(t, func() {
		ok := e.Emit(context.Background(), normalEvent("e1"))
		assert.True(t, ok, "a transport failure is not a suppression")
	})
}

func TestHotSwapStrategyKeepsBufferAndCounters(t *testing.T) {
	fake := testutil.NewFakeTransport()
	e, err := New("game-sensor", fake, WithFlushInterval(time.Hour))
	require.NoError(t, err)

	ctx := context.Background()
	e.Start(ctx)

	require.True(t, e.Emit(ctx, normalEvent("e1")))
	before := e.BufferStats().CurrentSize()

	clock := testutil.NewFakeClock(time.Now())
	e.SetStrategy(flow.NewTokenBucket(1, 10*time.Second, flow.WithClock(clock)))

	assert.Equal(t, before, e.BufferStats().CurrentSize(), "swap keeps buffered events")

	// New strategy governs subsequent admissions.
	require.True(t, e.Emit(ctx, normalEvent("e2")))
	require.False(t, e.Emit(ctx, normalEvent("e3")))
	assert.Equal(t, int64(1), e.Suppressed())

	require.NoError(t, e.Close())
	assert.Equal(t, 2, fake.PublishCount())
}

func TestBufferOverflowCountsAsSuppressed(t *testing.T) {
	fake := testutil.NewFakeTransport()
	e, err := New("game-sensor", fake,
		WithFlushInterval(time.Hour),
		WithBufferCapacity(2))
	require.NoError(t, err)

	ctx := context.Background()
	e.Start(ctx)

	require.True(t, e.Emit(ctx, normalEvent("e1")))
	require.True(t, e.Emit(ctx, normalEvent("e2")))
	require.True(t, e.Emit(ctx, normalEvent("e3")), "admission accepted it; overflow dropped the oldest")

	assert.Equal(t, int64(1), e.Suppressed())

	require.NoError(t, e.Close())
	ids := []string{fake.Published()[0].ID, fake.Published()[1].ID}
	assert.Equal(t, []string{"e2", "e3"}, ids)
}

func TestEmitNilEventIsRejected(t *testing.T) {
	fake := testutil.NewFakeTransport()
	e, err := New("game-sensor", fake)
	require.NoError(t, err)
	defer e.Close()

	assert.False(t, e.Emit(context.Background(), nil))
	assert.Equal(t, 0, fake.PublishCount())
}
