// Package config loads, validates and hot-swaps adapter runtime
// configuration from JSON or YAML files.
//
// A Config fully determines a runtime: identity and capabilities, the
// liveness schedule, the emitter's dispatch mode and buffer, the flow
// strategy, and the transport connection. Load applies defaults for unset
// fields and rejects inconsistent combinations up front, so the rest of the
// runtime never re-validates.
package config
