// Package orchestrator interprets a validated plan against the execution
// context and drives it through a fixed state machine:
//
//	sequential phase -> branch decision -> handoff | concurrent review -> consolidation
//
// The sequential phase runs strictly in declaration order; a failure there is
// fatal and the run halts with no report. The branch decision is a pure read
// of the critical-error flag set by the structural-validation step: it is
// evaluated programmatically on every run, never delegated to a planner. On
// the handoff path the review group's capabilities are never invoked at all.
// On the review path all group members fan out concurrently, join at a
// barrier regardless of individual outcome, and their report fragments are
// appended in plan declaration order, so the consolidated output is
// deterministic even though execution is not.
package orchestrator
