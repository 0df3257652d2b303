// Package runctx holds the mutable state of one review run: the per-step
// results, the run's flags, and the ordered report fragments that feed the
// final consolidation.
//
// The Context is the only shared mutable resource in a run. Each step id is a
// disjoint write slot written exactly once; Record refuses a second write for
// the same id, which turns a step-ran-twice bug into an immediate hard error
// instead of silent corruption. Fragments are appended only by the
// orchestrator's control loop, so their order always matches plan declaration
// order, never goroutine completion order.
package runctx
