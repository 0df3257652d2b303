package runctx

import (
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// FailureKind classifies why a step's invocation failed.
type FailureKind string

const (
	// KindInvocation covers errors returned by the capability itself.
	KindInvocation FailureKind = "invocation"
	// KindTimeout marks a per-call deadline expiry. Always retriable.
	KindTimeout FailureKind = "timeout"
	// KindValidation marks a contract violation: undecodable arguments or an
	// output that cannot be converted. Never retriable.
	KindValidation FailureKind = "validation"
	// KindCanceled marks a run-level cancellation.
	KindCanceled FailureKind = "canceled"
)

// Failure is the normalized record of a step that did not produce an output.
// Raw errors from capabilities never cross into the orchestrator's state
// machine; the executor converts them into this shape first.
type Failure struct {
	StepID     string
	Capability string
	Kind       FailureKind
	Message    string
	Retriable  bool
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("step %q (capability %q) failed: %s: %s", f.StepID, f.Capability, f.Kind, f.Message)
}

// Result is the terminal record of one step: either an Output value or a
// Failure, never both. It is written exactly once and immutable afterward.
type Result struct {
	StepID     string
	Capability string
	Output     cty.Value
	Failure    *Failure
}

// OK reports whether the step produced an output.
func (r Result) OK() bool {
	return r.Failure == nil
}

// transientError marks a wrapped error as a transient condition worth
// retrying.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err so the executor classifies it as retriable. Capabilities
// use it to flag transient I/O conditions (connection resets, rate limits)
// as opposed to permanent validation errors.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err (or anything it wraps) was marked with
// Transient.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
