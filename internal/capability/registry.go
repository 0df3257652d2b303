package capability

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
)

// ErrDuplicateCapability is returned when a name is registered twice.
var ErrDuplicateCapability = errors.New("capability already registered")

// ErrUnknownCapability is returned when resolving a name that was never registered.
var ErrUnknownCapability = errors.New("unknown capability")

// Capability holds the compiled Go parts of one unit of work.
//
// Fn must be a function of the form
//
//	func(ctx context.Context, input *T) (O, error)
//
// or, when NewInput is nil,
//
//	func(ctx context.Context) (O, error)
//
// where T is a struct with hcl-tagged fields and O is any value convertible
// to a cty object (typically a struct with cty-tagged fields).
type Capability struct {
	Name        string
	Description string
	NewInput    func() any
	Fn          any
}

// Module is the interface built-in capability packages implement to register
// themselves.
type Module interface {
	Register(r *Registry) error
}

// Registry maps capability names to their handlers for a single application
// instance.
type Registry struct {
	capabilities map[string]*Capability
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{capabilities: make(map[string]*Capability)}
}

// Register adds a capability under its name. It fails with
// ErrDuplicateCapability if the name is taken, and rejects handlers whose
// signature does not match the invocation contract.
func (r *Registry) Register(c *Capability) error {
	if c.Name == "" {
		return errors.New("capability name must not be empty")
	}
	if _, exists := r.capabilities[c.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateCapability, c.Name)
	}
	if err := validateFn(c); err != nil {
		return fmt.Errorf("capability %q: %w", c.Name, err)
	}
	r.capabilities[c.Name] = c
	return nil
}

// Resolve looks up a capability by name.
func (r *Registry) Resolve(name string) (*Capability, error) {
	c, ok := r.capabilities[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCapability, name)
	}
	return c, nil
}

// Names returns the registered capability names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.capabilities))
	for name := range r.capabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// validateFn checks the handler signature at registration time so that a
// mismatch surfaces at startup rather than mid-run.
func validateFn(c *Capability) error {
	if c.Fn == nil {
		return errors.New("handler function is nil")
	}
	fnType := reflect.TypeOf(c.Fn)
	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("handler must be a function, got %s", fnType.Kind())
	}

	wantIn := 1
	if c.NewInput != nil {
		wantIn = 2
	}
	if fnType.NumIn() != wantIn {
		return fmt.Errorf("handler must take %d argument(s), takes %d", wantIn, fnType.NumIn())
	}
	if !fnType.In(0).Implements(ctxType) {
		return errors.New("handler's first argument must be context.Context")
	}
	if c.NewInput != nil {
		inputType := reflect.TypeOf(c.NewInput())
		if inputType == nil || inputType.Kind() != reflect.Ptr {
			return errors.New("NewInput must return a non-nil pointer")
		}
		if fnType.In(1) != inputType {
			return fmt.Errorf("handler's second argument must be %s", inputType)
		}
	}

	if fnType.NumOut() != 2 {
		return fmt.Errorf("handler must return (output, error), returns %d value(s)", fnType.NumOut())
	}
	if !fnType.Out(1).Implements(errType) {
		return errors.New("handler's second return value must be error")
	}
	return nil
}
