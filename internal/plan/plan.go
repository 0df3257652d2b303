package plan

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// RefKind distinguishes the sources an argument expression can draw from.
type RefKind int

const (
	// RefStep references a prior step's output: step.<id>.<attr>.
	RefStep RefKind = iota
	// RefInput references an initial run input: input.<key>.
	RefInput
	// RefFragments references the accumulated report fragments: fragment.all.
	RefFragments
	// RefUnknown is any traversal root the engine does not provide.
	RefUnknown
)

// Ref is one variable reference extracted from an argument expression. An
// argument bound purely to literals has no refs.
type Ref struct {
	Kind     RefKind
	StepID   string // RefStep
	Attr     string // RefStep: output attribute, may be empty for whole-output refs
	InputKey string // RefInput
	Root     string // RefUnknown: the unrecognized traversal root
}

// Step is one step descriptor. IDs are unique within a plan; DependsOn holds
// both declared and inferred dependencies, all referencing
// earlier-declared steps.
type Step struct {
	ID               string
	Capability       string
	Group            string
	DependsOn        []string
	SetsCriticalFlag string
	Fragment         string
	Title            string
	Args             hcl.Body
	Bindings         map[string][]Ref
}

// FragmentTitle returns the title this step's fragment carries in the final
// report.
func (s *Step) FragmentTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return s.ID
}

// StepRefs returns the distinct step ids this step's bindings reference.
func (s *Step) StepRefs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, refs := range s.Bindings {
		for _, ref := range refs {
			if ref.Kind == RefStep && !seen[ref.StepID] {
				seen[ref.StepID] = true
				ids = append(ids, ref.StepID)
			}
		}
	}
	return ids
}

// wantsFragments reports whether any binding references fragment.all.
func (s *Step) wantsFragments() bool {
	for _, refs := range s.Bindings {
		for _, ref := range refs {
			if ref.Kind == RefFragments {
				return true
			}
		}
	}
	return false
}

// Plan is the ordered, immutable sequence of step descriptors for one run.
type Plan struct {
	Steps []*Step
}

// Phases partitions the steps into the sequential phase, the review group,
// and the consolidation phase by declaration order. Only meaningful after
// Validate has accepted the plan.
func (p *Plan) Phases() (sequential, review, consolidation []*Step) {
	groupSeen := false
	for _, step := range p.Steps {
		switch {
		case step.Group != "":
			groupSeen = true
			review = append(review, step)
		case groupSeen:
			consolidation = append(consolidation, step)
		default:
			sequential = append(sequential, step)
		}
	}
	return sequential, review, consolidation
}

// Step returns the step with the given id, if declared.
func (p *Plan) Step(id string) (*Step, bool) {
	for _, s := range p.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// DuplicateStepIDError reports two steps sharing an id.
type DuplicateStepIDError struct {
	ID string
}

func (e *DuplicateStepIDError) Error() string {
	return fmt.Sprintf("duplicate step id %q", e.ID)
}

// MalformedPlanError reports a structural defect in the plan.
type MalformedPlanError struct {
	StepID string
	Reason string
}

func (e *MalformedPlanError) Error() string {
	if e.StepID == "" {
		return fmt.Sprintf("malformed plan: %s", e.Reason)
	}
	return fmt.Sprintf("malformed plan: step %q: %s", e.StepID, e.Reason)
}
