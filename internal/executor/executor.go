package executor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/archreview/internal/capability"
	"github.com/vk/archreview/internal/ctxlog"
	"github.com/vk/archreview/internal/plan"
	"github.com/vk/archreview/internal/runctx"
)

// UnresolvedBindingError reports an argument binding that references a step
// with no recorded successful Result. This is a plan-construction bug, fatal
// to the run and never retried.
type UnresolvedBindingError struct {
	StepID string
	Ref    string
}

func (e *UnresolvedBindingError) Error() string {
	return fmt.Sprintf("step %q: binding references %q which has no recorded output", e.StepID, e.Ref)
}

// Options bound each capability invocation.
type Options struct {
	// StepTimeout caps a single invocation attempt. Zero means two minutes.
	StepTimeout time.Duration
	// MaxAttempts bounds retries of retriable failures. Zero means three.
	MaxAttempts uint
	// RetryInitialInterval seeds the exponential backoff between attempts.
	// Zero keeps the backoff default.
	RetryInitialInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.StepTimeout == 0 {
		o.StepTimeout = 2 * time.Minute
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = 3
	}
	return o
}

// Executor executes one step at a time against a shared execution context.
// It is safe for concurrent use; concurrent steps write disjoint step ids.
type Executor struct {
	registry *capability.Registry
	opts     Options
}

// New creates an Executor over the given registry.
func New(registry *capability.Registry, opts Options) *Executor {
	return &Executor{registry: registry, opts: opts.withDefaults()}
}

// Execute runs one step to a terminal Result and records it in rc. The
// returned error is non-nil only for fatal internal-consistency violations;
// a capability failure is reported inside the Result, not as an error.
func (e *Executor) Execute(ctx context.Context, step *plan.Step, rc *runctx.Context, inputs map[string]cty.Value) (runctx.Result, error) {
	logger := ctxlog.FromContext(ctx).With("step", step.ID, "capability", step.Capability)

	cap, err := e.registry.Resolve(step.Capability)
	if err != nil {
		return runctx.Result{}, fmt.Errorf("step %q: %w", step.ID, err)
	}

	for _, refID := range step.StepRefs() {
		res, ok := rc.Result(refID)
		if !ok || !res.OK() {
			return runctx.Result{}, &UnresolvedBindingError{StepID: step.ID, Ref: refID}
		}
	}

	result := runctx.Result{StepID: step.ID, Capability: cap.Name}

	in, failure := e.decodeInput(ctx, step, cap, rc, inputs)
	if failure == nil {
		logger.Debug("Invoking capability.")
		result.Output, failure = e.invokeWithRetry(ctx, step, cap, in)
	}
	result.Failure = failure

	if err := rc.Record(result); err != nil {
		return runctx.Result{}, err
	}
	if failure != nil {
		logger.Warn("Step reached terminal failure.", "kind", failure.Kind, "error", failure.Message)
	} else {
		logger.Debug("Step completed.")
	}
	return result, nil
}

// decodeInput evaluates the step's argument expressions and populates the
// capability's input struct. Decode problems are contract violations,
// recorded as permanent validation failures.
func (e *Executor) decodeInput(ctx context.Context, step *plan.Step, cap *capability.Capability, rc *runctx.Context, inputs map[string]cty.Value) (any, *runctx.Failure) {
	if cap.NewInput == nil {
		return nil, nil
	}
	in := cap.NewInput()

	body := step.Args
	if body == nil {
		body = hcl.EmptyBody()
	}
	evalCtx := buildEvalContext(rc, inputs)
	if diags := gohcl.DecodeBody(body, evalCtx, in); diags.HasErrors() {
		ctxlog.FromContext(ctx).Error("Failed to decode step arguments.", "step", step.ID, "error", diags.Error())
		return nil, &runctx.Failure{
			StepID:     step.ID,
			Capability: cap.Name,
			Kind:       runctx.KindValidation,
			Message:    fmt.Sprintf("cannot decode arguments: %s", diags.Error()),
		}
	}
	return in, nil
}

// invokeWithRetry drives the bounded-retry loop around a single capability
// call. Retriable failures back off exponentially; permanent ones stop the
// loop at once.
func (e *Executor) invokeWithRetry(ctx context.Context, step *plan.Step, cap *capability.Capability, in any) (cty.Value, *runctx.Failure) {
	logger := ctxlog.FromContext(ctx).With("step", step.ID, "capability", cap.Name)

	operation := func() (cty.Value, error) {
		callCtx, cancel := context.WithTimeout(ctx, e.opts.StepTimeout)
		defer cancel()

		native, err := invoke(callCtx, cap, in)
		if err != nil {
			f := e.classify(step, cap, err)
			if !f.Retriable {
				return cty.NilVal, backoff.Permanent(f)
			}
			logger.Warn("Attempt failed with retriable error.", "kind", f.Kind, "error", f.Message)
			return cty.NilVal, f
		}

		val, convErr := toCtyValue(native)
		if convErr != nil {
			return cty.NilVal, backoff.Permanent(&runctx.Failure{
				StepID:     step.ID,
				Capability: cap.Name,
				Kind:       runctx.KindValidation,
				Message:    fmt.Sprintf("cannot convert capability output: %s", convErr),
			})
		}
		return val, nil
	}

	expo := backoff.NewExponentialBackOff()
	if e.opts.RetryInitialInterval > 0 {
		expo.InitialInterval = e.opts.RetryInitialInterval
	}

	out, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(e.opts.MaxAttempts),
	)
	if err != nil {
		return cty.NilVal, e.asFailure(step, cap, err)
	}
	return out, nil
}

// classify normalizes an invocation error into a Failure record. Deadline
// expiry and explicitly marked transient conditions are retriable; everything
// else is permanent.
func (e *Executor) classify(step *plan.Step, cap *capability.Capability, err error) *runctx.Failure {
	f := &runctx.Failure{
		StepID:     step.ID,
		Capability: cap.Name,
		Message:    err.Error(),
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		f.Kind = runctx.KindTimeout
		f.Retriable = true
	case errors.Is(err, context.Canceled):
		f.Kind = runctx.KindCanceled
	case runctx.IsTransient(err):
		f.Kind = runctx.KindInvocation
		f.Retriable = true
	default:
		f.Kind = runctx.KindInvocation
	}
	return f
}

// asFailure extracts the Failure carried through the retry loop, wrapping
// anything unexpected so no raw error escapes.
func (e *Executor) asFailure(step *plan.Step, cap *capability.Capability, err error) *runctx.Failure {
	var f *runctx.Failure
	if errors.As(err, &f) {
		return f
	}
	return e.classify(step, cap, err)
}

// invoke calls the capability handler by reflection. A panicking capability
// is contained and reported as a plain invocation error.
func invoke(ctx context.Context, cap *capability.Capability, in any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("capability panicked: %v", r)
		}
	}()

	fn := reflect.ValueOf(cap.Fn)
	args := []reflect.Value{reflect.ValueOf(ctx)}
	if cap.NewInput != nil {
		args = append(args, reflect.ValueOf(in))
	}

	results := fn.Call(args)
	if errVal := results[1].Interface(); errVal != nil {
		return nil, errVal.(error)
	}
	return results[0].Interface(), nil
}
