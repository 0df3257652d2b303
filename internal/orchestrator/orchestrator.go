package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/archreview/internal/capability"
	"github.com/vk/archreview/internal/ctxlog"
	"github.com/vk/archreview/internal/executor"
	"github.com/vk/archreview/internal/plan"
	"github.com/vk/archreview/internal/runctx"
)

// Outcome is the terminal record of one run. Every run ends in exactly one of
// three shapes: a complete report, a report marked degraded with the failed
// sections named, or a hard failure with Err identifying the triggering step.
type Outcome struct {
	RunID       string
	State       State
	Report      string
	Degraded    bool
	FailedSteps []string
	Err         error
	// Context is the run's execution context, surfaced as a diagnostic
	// artifact even on hard failure.
	Context *runctx.Context
}

// Orchestrator drives validated plans through the review state machine.
type Orchestrator struct {
	registry *capability.Registry
	executor *executor.Executor
}

// New creates an Orchestrator resolving capabilities from reg and executing
// steps through exec.
func New(reg *capability.Registry, exec *executor.Executor) *Orchestrator {
	return &Orchestrator{registry: reg, executor: exec}
}

// Run validates the plan, executes it, and returns the Outcome. The error is
// non-nil exactly when the Outcome's state is StateFailed.
func (o *Orchestrator) Run(ctx context.Context, p *plan.Plan, inputs map[string]cty.Value) (*Outcome, error) {
	rc := runctx.New()
	ctx = ctxlog.With(ctx, "run_id", rc.RunID)
	logger := ctxlog.FromContext(ctx)

	outcome := &Outcome{RunID: rc.RunID, Context: rc}

	if err := p.Validate(o.registry); err != nil {
		logger.Error("Plan rejected before execution.", "error", err)
		return o.fail(outcome, err)
	}
	sequential, review, consolidation := p.Phases()
	logger.Info("Plan accepted.",
		"sequential_steps", len(sequential),
		"review_steps", len(review),
		"consolidation_steps", len(consolidation),
	)

	outcome.State = StateSequential
	if err := o.runSequential(ctx, sequential, rc, inputs); err != nil {
		return o.fail(outcome, err)
	}

	if len(review) > 0 {
		outcome.State = StateBranch
		critical := rc.BoolFlag(runctx.FlagCriticalError)
		logger.Info("Branch decision evaluated.", "critical_error", critical)

		if critical {
			outcome.State = StateHandoff
			logger.Warn("Critical structural error found, skipping detailed reviews.")
		} else {
			outcome.State = StateReview
			if err := o.runReviewGroup(ctx, review, rc, inputs); err != nil {
				return o.fail(outcome, err)
			}
		}
	}

	outcome.State = StateConsolidating
	report, err := o.runConsolidation(ctx, consolidation, rc, inputs)
	if err != nil {
		return o.fail(outcome, err)
	}

	outcome.State = StateDone
	outcome.Report = report
	outcome.FailedSteps = rc.FailedSteps()
	outcome.Degraded = len(outcome.FailedSteps) > 0
	logger.Info("Run finished.", "degraded", outcome.Degraded, "failed_steps", outcome.FailedSteps)
	return outcome, nil
}

// runSequential executes the pre-review steps strictly in declaration order.
// Any failure here is fatal: these steps are hard prerequisites.
func (o *Orchestrator) runSequential(ctx context.Context, steps []*plan.Step, rc *runctx.Context, inputs map[string]cty.Value) error {
	for _, step := range steps {
		res, err := o.executor.Execute(ctx, step, rc, inputs)
		if err != nil {
			return err
		}
		if !res.OK() {
			return res.Failure
		}
		if err := o.collectFragment(step, res, rc); err != nil {
			return err
		}
		if step.SetsCriticalFlag != "" {
			critical, err := boolAttr(res.Output, step.SetsCriticalFlag)
			if err != nil {
				return fmt.Errorf("step %q (capability %q): %w", step.ID, step.Capability, err)
			}
			rc.SetFlag(runctx.FlagCriticalError, critical)
			ctxlog.FromContext(ctx).Info("Critical-error flag recorded.", "step", step.ID, "value", critical)
		}
	}
	return nil
}

// runReviewGroup fans all group members out concurrently against the frozen
// sequential snapshot and joins at a barrier. A member's failure does not
// cancel its siblings; the group completes when every member has a terminal
// Result. Fragments are appended afterwards in declaration order.
func (o *Orchestrator) runReviewGroup(ctx context.Context, steps []*plan.Step, rc *runctx.Context, inputs map[string]cty.Value) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Fanning out review group.", "members", len(steps))

	type memberOutcome struct {
		res runctx.Result
		err error
	}
	outcomes := make([]memberOutcome, len(steps))

	var wg sync.WaitGroup
	for i, step := range steps {
		wg.Add(1)
		go func(i int, step *plan.Step) {
			defer wg.Done()
			res, err := o.executor.Execute(ctx, step, rc, inputs)
			outcomes[i] = memberOutcome{res: res, err: err}
		}(i, step)
	}
	wg.Wait()
	logger.Info("Review group joined.")

	for i := range steps {
		if outcomes[i].err != nil {
			return outcomes[i].err
		}
	}
	for i, step := range steps {
		res := outcomes[i].res
		if !res.OK() {
			rc.AddFragment(runctx.Fragment{
				StepID: step.ID,
				Title:  step.FragmentTitle(),
				Failed: true,
				Reason: res.Failure.Message,
			})
			logger.Warn("Review member failed; report will be degraded.", "step", step.ID)
			continue
		}
		if err := o.collectFragment(step, res, rc); err != nil {
			return err
		}
	}
	return nil
}

// runConsolidation executes the terminal steps in order and returns the final
// report. Consolidation failure is fatal: the run ends with no report.
func (o *Orchestrator) runConsolidation(ctx context.Context, steps []*plan.Step, rc *runctx.Context, inputs map[string]cty.Value) (string, error) {
	var lastOutput cty.Value
	for _, step := range steps {
		res, err := o.executor.Execute(ctx, step, rc, inputs)
		if err != nil {
			return "", err
		}
		if !res.OK() {
			return "", res.Failure
		}
		if err := o.collectFragment(step, res, rc); err != nil {
			return "", err
		}
		lastOutput = res.Output
	}

	if report, ok := reportFromOutput(lastOutput); ok {
		return report, nil
	}
	// A plan without a consolidation capability still ends with a report:
	// the accumulated fragments rendered in declaration order.
	return renderFragments(rc.Fragments()), nil
}

// collectFragment appends the step's report fragment when it declares one.
// A declared fragment attribute the output does not carry is a contract
// violation and fatal.
func (o *Orchestrator) collectFragment(step *plan.Step, res runctx.Result, rc *runctx.Context) error {
	if step.Fragment == "" {
		return nil
	}
	body, err := stringAttr(res.Output, step.Fragment)
	if err != nil {
		return fmt.Errorf("step %q (capability %q): %w", step.ID, step.Capability, err)
	}
	rc.AddFragment(runctx.Fragment{StepID: step.ID, Title: step.FragmentTitle(), Body: body})
	return nil
}

func (o *Orchestrator) fail(outcome *Outcome, err error) (*Outcome, error) {
	outcome.State = StateFailed
	outcome.Err = err
	outcome.FailedSteps = outcome.Context.FailedSteps()
	return outcome, err
}

// reportFromOutput extracts the final document from a consolidation output:
// either a "document" attribute or a bare string value.
func reportFromOutput(v cty.Value) (string, bool) {
	if v == cty.NilVal || v.IsNull() {
		return "", false
	}
	if v.Type().IsObjectType() && v.Type().HasAttribute("document") {
		attr := v.GetAttr("document")
		if attr.Type() == cty.String && !attr.IsNull() {
			return attr.AsString(), true
		}
	}
	if v.Type() == cty.String {
		return v.AsString(), true
	}
	return "", false
}

// renderFragments is the fallback report form used when no consolidation
// capability produced a document.
func renderFragments(fragments []runctx.Fragment) string {
	var sb strings.Builder
	for _, f := range fragments {
		fmt.Fprintf(&sb, "## %s\n\n", f.Title)
		if f.Failed {
			fmt.Fprintf(&sb, "This review could not complete: %s\n\n", f.Reason)
			continue
		}
		fmt.Fprintf(&sb, "%s\n\n", f.Body)
	}
	return strings.TrimSpace(sb.String())
}

func stringAttr(v cty.Value, name string) (string, error) {
	if !v.Type().IsObjectType() || !v.Type().HasAttribute(name) {
		return "", fmt.Errorf("output exposes no attribute %q", name)
	}
	attr := v.GetAttr(name)
	if attr.Type() != cty.String || attr.IsNull() {
		return "", fmt.Errorf("output attribute %q is not a string", name)
	}
	return attr.AsString(), nil
}

func boolAttr(v cty.Value, name string) (bool, error) {
	if !v.Type().IsObjectType() || !v.Type().HasAttribute(name) {
		return false, fmt.Errorf("output exposes no attribute %q", name)
	}
	attr := v.GetAttr(name)
	if attr.Type() != cty.Bool || attr.IsNull() {
		return false, fmt.Errorf("output attribute %q is not a boolean", name)
	}
	return attr.True(), nil
}
