package orchestrator

// State is the orchestrator's position in the run lifecycle.
type State int

const (
	// StateSequential covers document processing and structural validation.
	StateSequential State = iota
	// StateBranch is the critical-error decision point.
	StateBranch
	// StateHandoff skips the review group after a critical structural error.
	StateHandoff
	// StateReview fans the review group out concurrently.
	StateReview
	// StateConsolidating runs the terminal consolidation steps.
	StateConsolidating
	// StateDone is the successful terminal state.
	StateDone
	// StateFailed is the absorbing terminal state for fatal failures.
	StateFailed
)

var stateNames = map[State]string{
	StateSequential:    "sequential",
	StateBranch:        "branch_decision",
	StateHandoff:       "handoff",
	StateReview:        "concurrent_review",
	StateConsolidating: "consolidating",
	StateDone:          "done",
	StateFailed:        "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the state ends the run.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
