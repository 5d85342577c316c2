// Package gladys is the on-device runtime embedded in every GLADyS sensor
// adapter. An adapter bridges a domain-specific data source (a game client,
// a calendar integration) to the central gateway that routes, scores and
// stores observed events.
//
// # Architecture
//
// The runtime is assembled from small, independently testable packages:
//
//	┌─────────────────────────────────────┐
//	│        adapter.Runtime              │  start/stop, registration
//	│  (composes the pieces below)        │
//	└─────────────────────────────────────┘
//	           ↓ drives
//	┌──────────────────┐ ┌───────────────┐
//	│ liveness.Reporter│ │lifecycle.     │  periodic state report,
//	│ (scheduled tick) │→│Machine        │  remote command dispatch
//	└──────────────────┘ └───────────────┘
//	┌─────────────────────────────────────┐
//	│        emitter.Emitter              │  buffered / immediate / hybrid
//	│   (flow-controlled publication)     │  event publication
//	└─────────────────────────────────────┘
//	           ↓ publish via
//	┌─────────────────────────────────────┐
//	│       transport.Client              │  NATS request/reply,
//	│   (natstransport implementation)    │  per-call timeouts
//	└─────────────────────────────────────┘
//
// Driver code observes the domain and calls Emit/EmitBatch; the gateway
// steers the adapter remotely through commands carried back on liveness
// replies. Admission of events is decided locally by a pluggable
// flow.Strategy so the gateway is never overwhelmed, and time-critical
// events (salience threat > 0) can bypass buffering entirely.
//
// The runtime never lets a remote command, a failing handler or a transport
// outage crash the host process: failures degrade the adapter to an Error
// state that a Recover command can clear.
package gladys
