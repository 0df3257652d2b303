// Package executor runs a single plan step: it resolves the step's argument
// bindings against the execution context, decodes them into the capability's
// input struct, invokes the capability under a per-call timeout with bounded
// retries, and records exactly one terminal Result.
//
// Failures never leave this package as raw errors. Whatever a capability
// returns (or panics with) is normalized into a runctx.Failure carrying a
// kind and a retriable marker. Only internal-consistency violations (an
// unresolved binding, a double write) surface as Go errors, and those are
// fatal to the run.
package executor
