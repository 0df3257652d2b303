package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/archreview/internal/capability"
)

// Recorder tracks which capabilities ran and how often. All methods are safe
// for concurrent use, so review-group stubs can share one instance.
type Recorder struct {
	mu    sync.Mutex
	calls map[string]int
	order []string
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{calls: make(map[string]int)}
}

// Note records one invocation of the named capability.
func (r *Recorder) Note(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[name]++
	r.order = append(r.order, name)
}

// Count returns how many times the named capability ran.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

// Order returns capability names in the order their invocations started.
func (r *Recorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// NewCapability wraps a typed handler into a registry Capability.
func NewCapability[I any, O any](name string, fn func(context.Context, *I) (O, error)) *capability.Capability {
	return &capability.Capability{
		Name:     name,
		NewInput: func() any { return new(I) },
		Fn:       fn,
	}
}

// NewRegistry builds a registry holding the given capabilities, failing the
// test on any registration defect.
func NewRegistry(t *testing.T, caps ...*capability.Capability) *capability.Registry {
	t.Helper()
	reg := capability.New()
	for _, c := range caps {
		require.NoError(t, reg.Register(c))
	}
	return reg
}
