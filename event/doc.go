// Package event defines the event record adapters publish to the gateway.
//
// Events are opaque to the runtime except for the salience threat hint,
// which marks an event as time-critical and exempts it from buffering and
// flow-control admission (see the emitter package).
package event
