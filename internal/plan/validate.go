package plan

import (
	"fmt"

	"github.com/vk/archreview/internal/capability"
)

// phase identifies which of the three execution phases a step belongs to.
type phase int

const (
	phaseSequential phase = iota
	phaseReview
	phaseConsolidation
)

// phaseOf computes each step's phase by declaration order: ungrouped steps
// before the first grouped step are sequential, grouped steps form the review
// group, ungrouped steps after it are consolidation.
func (p *Plan) phaseOf() map[string]phase {
	phases := make(map[string]phase, len(p.Steps))
	groupSeen := false
	for _, step := range p.Steps {
		switch {
		case step.Group != "":
			groupSeen = true
			phases[step.ID] = phaseReview
		case groupSeen:
			phases[step.ID] = phaseConsolidation
		default:
			phases[step.ID] = phaseSequential
		}
	}
	return phases
}

// Validate runs every pre-flight check against the registry. It returns the
// first defect found. No capability is invoked until validation of the whole
// plan has passed.
func (p *Plan) Validate(reg *capability.Registry) error {
	if len(p.Steps) == 0 {
		return &MalformedPlanError{Reason: "plan declares no steps"}
	}

	order := make(map[string]int, len(p.Steps))
	for i, step := range p.Steps {
		if step.ID == "" {
			return &MalformedPlanError{Reason: fmt.Sprintf("step at index %d has no id", i)}
		}
		if _, dup := order[step.ID]; dup {
			return &DuplicateStepIDError{ID: step.ID}
		}
		order[step.ID] = i
	}

	for i, step := range p.Steps {
		if err := validateDeps(step, i, order); err != nil {
			return err
		}
		if err := validateRefs(step); err != nil {
			return err
		}
		if _, err := reg.Resolve(step.Capability); err != nil {
			return fmt.Errorf("step %q: %w", step.ID, err)
		}
	}

	return p.validateShape()
}

// validateDeps checks that every dependency names an earlier-declared step.
func validateDeps(step *Step, index int, order map[string]int) error {
	for _, dep := range step.DependsOn {
		depIndex, ok := order[dep]
		if !ok {
			return &MalformedPlanError{StepID: step.ID, Reason: fmt.Sprintf("depends on undeclared step %q", dep)}
		}
		if dep == step.ID {
			return &MalformedPlanError{StepID: step.ID, Reason: "depends on itself"}
		}
		if depIndex > index {
			return &MalformedPlanError{StepID: step.ID, Reason: fmt.Sprintf("depends on later-declared step %q", dep)}
		}
	}
	return nil
}

// validateRefs rejects argument expressions rooted in scopes the engine does
// not provide.
func validateRefs(step *Step) error {
	for attr, refs := range step.Bindings {
		for _, ref := range refs {
			if ref.Kind == RefUnknown {
				return &MalformedPlanError{
					StepID: step.ID,
					Reason: fmt.Sprintf("argument %q references unknown scope %q", attr, ref.Root),
				}
			}
		}
	}
	return nil
}

// validateShape enforces the three-phase structure: one contiguous review
// group whose members are mutually independent, a single critical-flag source
// in the sequential phase when a group exists, and fragment access kept out
// of the review group.
func (p *Plan) validateShape() error {
	phases := p.phaseOf()

	groupName := ""
	groupEnded := false
	for _, step := range p.Steps {
		if step.Group == "" {
			if groupName != "" {
				groupEnded = true
			}
			continue
		}
		if groupEnded {
			return &MalformedPlanError{StepID: step.ID, Reason: "review group must be contiguous"}
		}
		if groupName == "" {
			groupName = step.Group
		} else if step.Group != groupName {
			return &MalformedPlanError{
				StepID: step.ID,
				Reason: fmt.Sprintf("plan may declare one review group, found %q and %q", groupName, step.Group),
			}
		}
	}

	// Group members run concurrently against the same snapshot, so a member
	// depending on a sibling can never be satisfied.
	for _, step := range p.Steps {
		if phases[step.ID] != phaseReview {
			continue
		}
		for _, dep := range step.DependsOn {
			if phases[dep] == phaseReview {
				return &MalformedPlanError{
					StepID: step.ID,
					Reason: fmt.Sprintf("review group members must be independent, but it depends on sibling %q", dep),
				}
			}
		}
	}

	flagSource := ""
	for _, step := range p.Steps {
		if step.SetsCriticalFlag == "" {
			continue
		}
		if phases[step.ID] != phaseSequential {
			return &MalformedPlanError{StepID: step.ID, Reason: "sets_critical_flag is only valid on sequential-phase steps"}
		}
		if flagSource != "" {
			return &MalformedPlanError{
				StepID: step.ID,
				Reason: fmt.Sprintf("critical flag already set by step %q", flagSource),
			}
		}
		flagSource = step.ID
	}
	if groupName != "" && flagSource == "" {
		return &MalformedPlanError{Reason: "a plan with a review group needs a sequential step with sets_critical_flag"}
	}

	// Review fragments are appended only after the group barrier; a grouped
	// step reading fragment.all would observe a phase-dependent snapshot.
	for _, step := range p.Steps {
		if step.wantsFragments() && phases[step.ID] == phaseReview {
			return &MalformedPlanError{StepID: step.ID, Reason: "fragment.all is not available to review group members"}
		}
	}
	return nil
}
