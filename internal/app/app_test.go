package app_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/archreview/internal/app"
	"github.com/vk/archreview/internal/capability"
	"github.com/vk/archreview/internal/testutil"
)

type summarizeInput struct {
	Source string `hcl:"source"`
}

type summarizeOutput struct {
	Summary string `cty:"summary"`
}

type verdictInput struct {
	Summary   string `hcl:"summary"`
	RulesPath string `hcl:"rules_path"`
}

type verdictOutput struct {
	HasCriticalErrors bool   `cty:"has_critical_errors"`
	ReportText        string `cty:"report_text"`
}

type reviewInput struct {
	Summary string `hcl:"summary"`
}

type reviewOutput struct {
	ReportText string `cty:"report_text"`
}

// stubModule registers canned capabilities in place of the LLM-backed ones.
type stubModule struct {
	caps []*capability.Capability
}

func (m *stubModule) Register(r *capability.Registry) error {
	for _, c := range m.caps {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

const testPlan = `
step "doc" {
  capability = "summarize_document"
  arguments {
    source = input.document
  }
}

step "structure" {
  capability         = "validate_structure"
  sets_critical_flag = "has_critical_errors"
  fragment           = "report_text"
  title              = "Structural Validation"
  arguments {
    summary    = step.doc.summary
    rules_path = input.rules
  }
}

step "security" {
  capability = "review_security"
  group      = "review"
  fragment   = "report_text"
  title      = "Security Review"
  arguments {
    summary = step.doc.summary
  }
}
`

func TestApp_EndToEnd(t *testing.T) {
	t.Parallel()

	module := &stubModule{caps: []*capability.Capability{
		testutil.NewCapability("summarize_document", func(_ context.Context, in *summarizeInput) (summarizeOutput, error) {
			return summarizeOutput{Summary: "summary of " + in.Source}, nil
		}),
		testutil.NewCapability("validate_structure", func(_ context.Context, in *verdictInput) (verdictOutput, error) {
			return verdictOutput{ReportText: "rules checked against " + in.RulesPath}, nil
		}),
		testutil.NewCapability("review_security", func(_ context.Context, _ *reviewInput) (reviewOutput, error) {
			return reviewOutput{ReportText: "no security findings"}, nil
		}),
	}}

	cfg, err := app.NewConfig(app.Config{
		PlanPath:     testutil.WritePlan(t, testPlan),
		DocumentPath: "design.md",
		RulesPath:    "rules.yaml",
		LogFormat:    "text",
		LogLevel:     "debug",
	})
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	reviewApp, err := app.New(out, logs, cfg, module)
	require.NoError(t, err)

	require.Len(t, reviewApp.Plan().Steps, 3)
	assert.Equal(t, []string{"review_security", "summarize_document", "validate_structure"}, reviewApp.Registry().Names())

	require.NoError(t, reviewApp.Run(context.Background()))

	report := out.String()
	assert.Contains(t, report, "## Structural Validation")
	assert.Contains(t, report, "rules checked against rules.yaml")
	assert.Contains(t, report, "## Security Review")
	assert.Contains(t, report, "no security findings")
}

func TestApp_RejectsMissingPlanFile(t *testing.T) {
	t.Parallel()

	cfg, err := app.NewConfig(app.Config{
		PlanPath:     "does-not-exist.hcl",
		DocumentPath: "design.md",
	})
	require.NoError(t, err)

	_, err = app.New(&bytes.Buffer{}, &testutil.SafeBuffer{}, cfg, &stubModule{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read plan file")
}
