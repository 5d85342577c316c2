// Package emitter implements the flow-controlled event dispatcher that
// decides locally, without a gateway round trip, whether, when and how
// each observed event is published.
//
// Three modes exist, selected by the flush interval and threat-bypass
// options:
//
//   - Immediate: each Emit publishes synchronously.
//   - Scheduled: events accumulate in a circular buffer; a background timer
//     flushes the whole buffer as one batch per interval.
//   - Hybrid: as Scheduled, except threat events (salience threat > 0)
//     publish immediately. Time-critical events must not wait behind a
//     flush timer tuned for routine telemetry.
//
// Every non-threat event passes through a flow.Strategy before
// consideration; a declined event is a counted suppression, not an error.
// EmitBatch additionally performs priority-aware admission under a fixed
// token budget while preserving the batch's original relative order in the
// admitted output.
package emitter
