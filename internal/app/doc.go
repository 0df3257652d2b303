// Package app wires the review engine together: configuration, logging,
// model clients, the capability registry, and the plan. It owns application
// lifecycle; the orchestration semantics live in internal/orchestrator.
package app
