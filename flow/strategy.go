// Package flow provides pluggable admission-control strategies for event
// publication. A strategy answers two questions locally, without a round
// trip to the gateway: "may this event publish now?" and "how many more
// right now?".
//
// Threat events never reach a strategy; the emitter bypasses admission for
// them entirely.
package flow

import (
	"math"
	"time"

	"github.com/Divinity10/GLADyS-sub004/event"
)

// Strategy decides whether events may be published under the current
// back-pressure budget. Implementations must be safe for concurrent use;
// the emitter calls them from both the flush timer and caller goroutines.
type Strategy interface {
	// ShouldPublish consumes budget for one event if available and reports
	// whether the event may publish. A false return is a suppression, not
	// an error.
	ShouldPublish(e *event.Event) bool

	// AvailableTokens returns how many events could publish right now.
	AvailableTokens() int

	// Consume deducts n tokens. Used after batch admission decisions where
	// the caller has already queried AvailableTokens.
	Consume(n int)
}

// Clock abstracts time for deterministic strategy tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// Noop is the default strategy: everything publishes, budget is unbounded.
type Noop struct{}

// NewNoop creates the pass-through strategy.
func NewNoop() *Noop { return &Noop{} }

// ShouldPublish always returns true.
func (*Noop) ShouldPublish(*event.Event) bool { return true }

// AvailableTokens returns an effectively unbounded budget.
func (*Noop) AvailableTokens() int { return math.MaxInt32 }

// Consume is a no-op.
func (*Noop) Consume(int) {}
