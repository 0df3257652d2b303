package runctx

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"
)

// ErrResultOverwrite indicates a second write to an already-recorded step id.
// This is an internal-consistency violation: it means a step ran twice.
var ErrResultOverwrite = errors.New("result already recorded for step")

// FlagCriticalError is the flag the branch decision reads after structural
// validation.
const FlagCriticalError = "critical_error"

// Fragment is one step's contribution to the final consolidated report. A
// failed review step still contributes a fragment, marked Failed with the
// failure reason, so consolidation can name the sections that could not
// complete.
type Fragment struct {
	StepID string
	Title  string
	Body   string
	Failed bool
	Reason string
}

// Context is the mutable store for a single run. All methods are safe for
// concurrent use; concurrent review steps write disjoint step ids.
type Context struct {
	RunID string

	mu        sync.Mutex
	results   map[string]Result
	flags     map[string]any
	fragments []Fragment
}

// New creates an empty Context with a fresh run id.
func New() *Context {
	return &Context{
		RunID:   uuid.NewString(),
		results: make(map[string]Result),
		flags:   make(map[string]any),
	}
}

// Record stores a step's terminal Result. Exactly one write per step id is
// permitted; a second write fails with ErrResultOverwrite.
func (c *Context) Record(res Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.results[res.StepID]; exists {
		return fmt.Errorf("%w: %q", ErrResultOverwrite, res.StepID)
	}
	c.results[res.StepID] = res
	return nil
}

// Result returns the recorded Result for a step id, if any.
func (c *Context) Result(stepID string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.results[stepID]
	return res, ok
}

// Outputs returns the outputs of all successful steps keyed by step id, for
// building expression evaluation scopes.
func (c *Context) Outputs() map[string]cty.Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	outputs := make(map[string]cty.Value, len(c.results))
	for id, res := range c.results {
		if res.OK() {
			outputs[id] = res.Output
		}
	}
	return outputs
}

// FailedSteps returns the ids of steps whose Result is a Failure, in no
// particular order.
func (c *Context) FailedSteps() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var failed []string
	for id, res := range c.results {
		if !res.OK() {
			failed = append(failed, id)
		}
	}
	return failed
}

// SetFlag sets a named run flag.
func (c *Context) SetFlag(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flags[name] = value
}

// BoolFlag reads a flag as a boolean. An absent or non-boolean flag reads
// false.
func (c *Context) BoolFlag(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.flags[name].(bool)
	return ok && v
}

// AddFragment appends a report fragment. Callers are responsible for calling
// in plan declaration order.
func (c *Context) AddFragment(f Fragment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fragments = append(c.fragments, f)
}

// Fragments returns a copy of the accumulated fragments in append order.
func (c *Context) Fragments() []Fragment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Fragment, len(c.fragments))
	copy(out, c.fragments)
	return out
}
