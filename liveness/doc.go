// Package liveness implements the periodic "I am alive, here is my state"
// report each adapter sends to the gateway.
//
// The report doubles as the command channel: the gateway's reply carries
// any lifecycle commands queued since the last report, and the reporter
// dispatches them to the state machine in received order. Transport
// failures are swallowed with a warning; a single missed report just
// waits for the next tick.
package liveness
