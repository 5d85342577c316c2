// Package testutil provides test doubles for the adapter runtime:
//
//   - FakeClock: a manually advanced clock for deterministic token-bucket
//     and scheduler tests.
//   - FakeTransport: an in-memory transport.Client that records every call
//     and can be scripted to fail or to return queued commands.
//
// Both are safe for concurrent use.
package testutil
