package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}

	cfg, exit, err := Parse([]string{"-doc", "design.md", "plan.hcl"}, out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "plan.hcl", cfg.PlanPath)
	assert.Equal(t, "design.md", cfg.DocumentPath)
	assert.Equal(t, "structural_rules.yaml", cfg.RulesPath)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 2*time.Minute, cfg.StepTimeout)
	assert.Equal(t, uint(3), cfg.MaxAttempts)
}

func TestParse_PlanFlagWinsOverPositional(t *testing.T) {
	t.Parallel()

	cfg, exit, err := Parse([]string{"-plan", "a.hcl", "-doc", "d.md", "b.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "a.hcl", cfg.PlanPath)
}

func TestParse_Shorthand(t *testing.T) {
	t.Parallel()

	cfg, exit, err := Parse([]string{"-p", "a.hcl", "-doc", "d.md"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "a.hcl", cfg.PlanPath)
}

func TestParse_NoPlanPrintsUsage(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}

	cfg, exit, err := Parse([]string{}, out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_Help(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}

	cfg, exit, err := Parse([]string{"-h"}, out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_InvalidValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
		want string
	}{
		{"bad log format", []string{"-log-format", "xml", "-doc", "d.md", "p.hcl"}, "invalid log-format"},
		{"bad log level", []string{"-log-level", "loud", "-doc", "d.md", "p.hcl"}, "invalid log-level"},
		{"missing document", []string{"p.hcl"}, "document"},
		{"unknown flag", []string{"--no-such-flag", "p.hcl"}, "flag provided but not defined"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := Parse(tc.args, &bytes.Buffer{})
			require.Error(t, err)

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}
}
