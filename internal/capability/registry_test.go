package capability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoInput struct {
	Text string `hcl:"text"`
}

type echoOutput struct {
	Text string `cty:"text"`
}

func echoFn(_ context.Context, in *echoInput) (*echoOutput, error) {
	return &echoOutput{Text: in.Text}, nil
}

func TestRegisterAndResolve(t *testing.T) {
	r := New()

	err := r.Register(&Capability{
		Name:     "echo",
		NewInput: func() any { return new(echoInput) },
		Fn:       echoFn,
	})
	require.NoError(t, err)

	c, err := r.Resolve("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", c.Name)
	assert.Equal(t, []string{"echo"}, r.Names())
}

func TestRegisterDuplicate(t *testing.T) {
	r := New()
	cap := &Capability{
		Name:     "echo",
		NewInput: func() any { return new(echoInput) },
		Fn:       echoFn,
	}
	require.NoError(t, r.Register(cap))

	err := r.Register(cap)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateCapability)
}

func TestResolveUnknown(t *testing.T) {
	r := New()
	_, err := r.Resolve("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCapability)
}

func TestRegisterNoInput(t *testing.T) {
	r := New()
	err := r.Register(&Capability{
		Name: "tick",
		Fn:   func(_ context.Context) (*echoOutput, error) { return &echoOutput{}, nil },
	})
	require.NoError(t, err)
}

func TestRegisterBadSignatures(t *testing.T) {
	cases := []struct {
		name string
		cap  *Capability
	}{
		{"nil fn", &Capability{Name: "x"}},
		{"not a function", &Capability{Name: "x", Fn: 42}},
		{"missing context", &Capability{
			Name:     "x",
			NewInput: func() any { return new(echoInput) },
			Fn:       func(in *echoInput) (*echoOutput, error) { return nil, nil },
		}},
		{"input mismatch", &Capability{
			Name:     "x",
			NewInput: func() any { return new(echoInput) },
			Fn:       func(_ context.Context, in *echoOutput) (*echoOutput, error) { return nil, nil },
		}},
		{"single return", &Capability{
			Name:     "x",
			NewInput: func() any { return new(echoInput) },
			Fn:       func(_ context.Context, in *echoInput) error { return nil },
		}},
		{"empty name", &Capability{
			Name:     "",
			NewInput: func() any { return new(echoInput) },
			Fn:       echoFn,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := New()
			assert.Error(t, r.Register(tc.cap))
		})
	}
}
