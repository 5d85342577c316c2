package flow

import (
	"math"
	"sync"
	"time"

	"github.com/Divinity10/GLADyS-sub004/event"
)

// TokenBucket admits at most capacity events per window. Tokens refill
// continuously: fractional tokens accrue proportional to elapsed time, so
// admission is fair regardless of when within a window a decision is made.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	window     time.Duration
	tokens     float64
	lastRefill time.Time
	clock      Clock
}

// TokenBucketOption configures a TokenBucket.
type TokenBucketOption func(*TokenBucket)

// WithClock injects a clock, used by tests to freeze or advance time.
func WithClock(clock Clock) TokenBucketOption {
	return func(tb *TokenBucket) {
		if clock != nil {
			tb.clock = clock
		}
	}
}

// NewTokenBucket creates a bucket holding capacity tokens that refills over
// the given window. The bucket starts full. Non-positive capacity or window
// fall back to 1 event per second.
func NewTokenBucket(capacity int, window time.Duration, opts ...TokenBucketOption) *TokenBucket {
	if capacity <= 0 {
		capacity = 1
	}
	if window <= 0 {
		window = time.Second
	}

	tb := &TokenBucket{
		capacity: float64(capacity),
		window:   window,
		tokens:   float64(capacity),
		clock:    SystemClock(),
	}
	for _, opt := range opts {
		opt(tb)
	}
	tb.lastRefill = tb.clock.Now()
	return tb
}

// refill accrues fractional tokens for the time elapsed since the last
// refill, capped at capacity. Caller must hold mu.
func (tb *TokenBucket) refill() {
	now := tb.clock.Now()
	elapsed := now.Sub(tb.lastRefill)
	tb.lastRefill = now
	if elapsed <= 0 {
		return
	}

	tb.tokens += elapsed.Seconds() * (tb.capacity / tb.window.Seconds())
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
}

// ShouldPublish refills, then deducts one token if at least one is
// available.
func (tb *TokenBucket) ShouldPublish(*event.Event) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// AvailableTokens refills, then returns the whole tokens currently held.
func (tb *TokenBucket) AvailableTokens() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	return int(math.Floor(tb.tokens))
}

// Consume deducts n tokens directly. The balance never goes below zero.
func (tb *TokenBucket) Consume(n int) {
	if n <= 0 {
		return
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens -= float64(n)
	if tb.tokens < 0 {
		tb.tokens = 0
	}
}

// Capacity returns the configured maximum number of tokens.
func (tb *TokenBucket) Capacity() int {
	return int(tb.capacity)
}

// Window returns the configured refill window.
func (tb *TokenBucket) Window() time.Duration {
	return tb.window
}
