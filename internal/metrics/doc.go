// Package metrics exposes Prometheus collectors for the emulator.
//
// A *Metrics is passed to the session as its Observer and counts packets,
// replies, executed and ignored commands, and connect outcomes. The REST
// front-end records request counts and durations through ObserveHTTP and
// serves the registry at /metrics via Handler.
//
// Each New call builds its own registry unless one is supplied with
// WithRegistry, so tests can create instances freely.
package metrics
