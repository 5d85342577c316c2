package emitter

import (
	"context"
	"sort"

	"github.com/Divinity10/GLADyS-sub004/event"
)

// Result summarizes one EmitBatch call. Sent + Suppressed always equals the
// input size.
type Result struct {
	Sent       int
	Suppressed int
}

// EmitBatch offers a batch of events for publication under a single token
// budget. Threat events bypass admission entirely; the remaining candidates
// compete for the tokens currently available, ranked by the configured
// priority function (original order when none is set). Admitted events are
// dispatched in their original relative order through the same mode paths
// as single emits.
func (e *Emitter) EmitBatch(ctx context.Context, events []*event.Event) Result {
	if len(events) == 0 {
		return Result{}
	}

	// Partition by original index so selection can never leak reordering
	// into the emitted sequence. Nil entries are rejected up front, like
	// Emit's nil check; they never compete for tokens or reach the
	// transport.
	var threatIdx, candidateIdx []int
	nilCount := 0
	for i, ev := range events {
		switch {
		case ev == nil:
			nilCount++
		case ev.IsThreat():
			threatIdx = append(threatIdx, i)
		default:
			candidateIdx = append(candidateIdx, i)
		}
	}

	selected := e.admitCandidates(events, candidateIdx)

	admitted := make([]int, 0, len(threatIdx)+len(selected))
	admitted = append(admitted, threatIdx...)
	admitted = append(admitted, selected...)
	sort.Ints(admitted)

	suppressedCount := len(candidateIdx) - len(selected)
	if suppressedCount > 0 {
		e.suppressed.Add(int64(suppressedCount))
		if e.metrics != nil {
			e.metrics.RecordSuppressed(e.name, "admission", suppressedCount)
		}
	}

	e.dispatchAdmitted(ctx, events, admitted)

	return Result{Sent: len(admitted), Suppressed: suppressedCount + nilCount}
}

// admitCandidates applies the token budget to the non-threat share of the
// batch and returns the selected original indices in ascending order.
func (e *Emitter) admitCandidates(events []*event.Event, candidateIdx []int) []int {
	if len(candidateIdx) == 0 {
		return nil
	}

	strategy := e.currentStrategy()
	available := strategy.AvailableTokens()

	switch {
	case available >= len(candidateIdx):
		strategy.Consume(len(candidateIdx))
		return candidateIdx
	case available <= 0:
		return nil
	}

	selected := make([]int, len(candidateIdx))
	copy(selected, candidateIdx)

	if e.priority != nil {
		// Stable sort: equal priorities keep earliest-index-first order.
		sort.SliceStable(selected, func(a, b int) bool {
			return e.priority(events[selected[a]]) > e.priority(events[selected[b]])
		})
	}

	selected = selected[:available]
	sort.Ints(selected)
	strategy.Consume(len(selected))
	return selected
}

// dispatchAdmitted routes the admitted events, in original order, through
// the mode-specific publication paths.
func (e *Emitter) dispatchAdmitted(ctx context.Context, events []*event.Event, admitted []int) {
	if len(admitted) == 0 {
		return
	}

	switch e.mode {
	case ModeImmediate:
		batch := make([]*event.Event, 0, len(admitted))
		for _, i := range admitted {
			batch = append(batch, events[i])
		}
		e.publishBatch(ctx, batch, pathImmediate)

	case ModeHybrid:
		// Threats leave now; everything else waits for the flush timer.
		var bypass []*event.Event
		for _, i := range admitted {
			if events[i].IsThreat() {
				bypass = append(bypass, events[i])
			} else {
				e.accept(ctx, events[i])
			}
		}
		if len(bypass) == 1 {
			e.publishOne(ctx, bypass[0], pathBypass)
		} else if len(bypass) > 1 {
			e.publishBatch(ctx, bypass, pathBypass)
		}

	default: // ModeScheduled
		for _, i := range admitted {
			e.accept(ctx, events[i])
		}
	}
}
