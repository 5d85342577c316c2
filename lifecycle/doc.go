// Package lifecycle implements the command lifecycle state machine that
// processes remote commands delivered to an adapter.
//
// The gateway queues commands (start, stop, pause, resume, reload, recover,
// health_check) and the liveness reporter carries them here. Each command is
// dispatched to a driver-registered Handler under a fully serialized
// dispatch lock; the handler's result, or a default transition table,
// determines the next operating state.
//
// Failure containment is the point of this package: a missing handler, a
// failing handler, or a panicking handler degrades the adapter to
// StateError (health checks excepted; a bad probe never changes state)
// and records the message, but Dispatch itself never fails. An optional
// global ErrorHandler can override the degraded outcome, and its own
// failures are swallowed too.
package lifecycle
