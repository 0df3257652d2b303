// Package capability provides the lookup table that maps a capability name to
// an invocable unit of work.
//
// A Capability pairs a name with a compiled Go handler function and a factory
// for its argument struct. The Registry stores capabilities by name and is
// populated once at startup, strictly before any orchestration run begins; it
// is read-only during execution. Everything the engine knows about what a
// capability computes lives behind the handler's signature, so the
// orchestration core stays agnostic to document parsing, LLM calls, or
// anything else a capability does internally.
package capability
