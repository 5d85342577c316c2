package flow

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divinity10/GLADyS-sub004/event"
	"github.com/Divinity10/GLADyS-sub004/testutil"
)

func TestNoopAlwaysAdmits(t *testing.T) {
	s := NewNoop()
	e := event.New("test", "obs", nil)

	for i := 0; i < 100; i++ {
		assert.True(t, s.ShouldPublish(e))
	}
	assert.Positive(t, s.AvailableTokens())
	s.Consume(1000) // no-op, budget stays unbounded
	assert.Positive(t, s.AvailableTokens())
}

func TestTokenBucketExhaustionWithFrozenTime(t *testing.T) {
	clock := testutil.NewFakeClock(time.Now())
	tb := NewTokenBucket(5, time.Second, WithClock(clock))
	e := event.New("test", "obs", nil)

	for i := 0; i < 5; i++ {
		assert.True(t, tb.ShouldPublish(e), "call %d should succeed", i+1)
	}
	assert.False(t, tb.ShouldPublish(e), "6th call must fail")
	assert.Equal(t, 0, tb.AvailableTokens())
}

func TestTokenBucketContinuousRefill(t *testing.T) {
	clock := testutil.NewFakeClock(time.Now())
	tb := NewTokenBucket(2, 2*time.Second, WithClock(clock))
	e := event.New("test", "obs", nil)

	require.True(t, tb.ShouldPublish(e))
	require.True(t, tb.ShouldPublish(e))
	require.False(t, tb.ShouldPublish(e))

	// 2 tokens per 2s = 1 token/s; 1.1s accrues just over one token.
	clock.Advance(1100 * time.Millisecond)
	assert.True(t, tb.ShouldPublish(e))
}

func TestTokenBucketNeverExceedsCapacity(t *testing.T) {
	clock := testutil.NewFakeClock(time.Now())
	tb := NewTokenBucket(3, time.Second, WithClock(clock))

	clock.Advance(time.Hour)
	assert.Equal(t, 3, tb.AvailableTokens())
}

func TestTokenBucketConsumeFloorsAtZero(t *testing.T) {
	clock := testutil.NewFakeClock(time.Now())
	tb := NewTokenBucket(5, time.Hour, WithClock(clock))

	tb.Consume(100)
	assert.Equal(t, 0, tb.AvailableTokens(), "consume never drives tokens negative")
}

func TestTokenBucketConsumeAfterBatchDecision(t *testing.T) {
	clock := testutil.NewFakeClock(time.Now())
	tb := NewTokenBucket(10, time.Hour, WithClock(clock))

	available := tb.AvailableTokens()
	require.Equal(t, 10, available)

	tb.Consume(4)
	assert.Equal(t, 6, tb.AvailableTokens())
}

func TestTokenBucketFractionalAccrual(t *testing.T) {
	clock := testutil.NewFakeClock(time.Now())
	tb := NewTokenBucket(10, 10*time.Second, WithClock(clock))
	tb.Consume(10)

	// Half a second accrues half a token: not yet spendable.
	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 0, tb.AvailableTokens())

	// Another half second completes one whole token.
	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 1, tb.AvailableTokens())
}

func TestTokenBucketDefaultsOnInvalidParams(t *testing.T) {
	tb := NewTokenBucket(0, 0)
	assert.Equal(t, 1, tb.Capacity())
	assert.Equal(t, time.Second, tb.Window())
}

func TestTokenBucketConcurrentAccess(t *testing.T) {
	clock := testutil.NewFakeClock(time.Now())
	tb := NewTokenBucket(100, time.Hour, WithClock(clock))
	e := event.New("test", "obs", nil)

	var wg sync.WaitGroup
	admitted := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			admitted <- tb.ShouldPublish(e)
		}()
	}
	wg.Wait()
	close(admitted)

	count := 0
	for ok := range admitted {
		if ok {
			count++
		}
	}
	assert.Equal(t, 100, count, "exactly capacity admissions under contention")
	assert.Equal(t, 0, tb.AvailableTokens())
}
