// Package metric provides Prometheus metrics for the adapter runtime.
//
// The MetricsRegistry owns a private Prometheus registry seeded with the
// runtime's core metrics (adapter state, command dispatch outcomes, event
// publication and suppression counters, liveness ticks, transport health).
// Domain drivers register their own collectors through the MetricsRegistrar
// interface; duplicate registrations are rejected with classified errors so
// a misconfigured driver fails loudly at startup rather than silently
// double-counting.
package metric
