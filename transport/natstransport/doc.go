// Package natstransport implements transport.Client over NATS request/reply
// with JSON bodies.
//
// Subjects are namespaced under a configurable prefix (default "gladys"):
//
//	<prefix>.adapter.register    adapter registration
//	<prefix>.adapter.liveness    liveness report, reply carries queued commands
//	<prefix>.event               single event publication
//	<prefix>.event.batch         batch publication
//
// A circuit breaker sits in front of every call: after a run of consecutive
// failures the circuit opens and calls fail fast with ErrCircuitOpen instead
// of stacking up timed-out requests on the capture hot path. The circuit
// half-opens after a backoff that doubles per round up to a cap, and any
// successful call closes it again. Connection-level healing is delegated to
// the NATS client's own reconnect loop.
package natstransport
