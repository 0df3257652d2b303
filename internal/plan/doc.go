// Package plan defines the declarative step plan driving one review run and
// its pre-flight validation.
//
// A plan is an ordered list of step descriptors. Each step names a
// capability, binds its arguments to literals, initial inputs (input.*) or
// prior step outputs (step.<id>.*), and may join the single concurrent review
// group. The declaration order partitions the plan into three phases:
//
//   - sequential phase: ungrouped steps before the first grouped step, run
//     strictly in order
//   - review group: grouped steps, fanned out concurrently after the branch
//     decision
//   - consolidation phase: ungrouped steps after the group, run in order with
//     access to the accumulated report fragments (fragment.all)
//
// Plans arrive as untrusted input (a file on disk, or the output of an
// external planning component), so Validate checks everything — duplicate
// ids, dependency ordering, group shape, capability resolution — before a
// single capability is invoked. Validation is never interleaved with
// execution.
package plan
