// Package secreview reviews the design summary from a security and
// compliance perspective.
package secreview

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/vk/archreview/internal/capability"
	"github.com/vk/archreview/internal/ctxlog"
	"github.com/vk/archreview/internal/llmtext"
	"github.com/vk/archreview/internal/runctx"
)

const systemPrompt = "You are a highly skilled cybersecurity architect. Your role is to critically " +
	"evaluate the provided design proposal summary from a security and compliance " +
	"perspective. Identify potential vulnerabilities, recommend best practices, and " +
	"assess adherence to common security principles (e.g., least privilege, " +
	"defense-in-depth, data encryption). Generate a concise security review report."

const reviewPrompt = "As a cybersecurity architect, conduct a thorough security review of the following " +
	"design proposal summary. Focus on identifying potential vulnerabilities, " +
	"compliance concerns, and areas where security best practices could be applied " +
	"or improved. Provide actionable recommendations.\n\n" +
	"Design Proposal Summary:\n%s\n\n" +
	"Security Review Report (Concise and Actionable):"

// Module implements the capability.Module interface for this package.
type Module struct {
	Model llms.Model
}

// New creates the module over the given complex model.
func New(model llms.Model) *Module {
	return &Module{Model: model}
}

// Input defines the arguments for the 'arguments' HCL block.
type Input struct {
	Summary string `hcl:"summary"`
}

// Output carries the security findings as this step's report fragment.
type Output struct {
	ReportText string `cty:"report_text"`
}

// Review produces the security review report for the summary.
func (m *Module) Review(ctx context.Context, input *Input) (Output, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Starting security review.")

	report, err := llmtext.Complete(ctx, m.Model, systemPrompt,
		fmt.Sprintf(reviewPrompt, input.Summary),
		llms.WithMaxTokens(700),
		llms.WithTemperature(0.3),
	)
	if err != nil {
		return Output{}, runctx.Transient(fmt.Errorf("security review failed: %w", err))
	}

	logger.Info("Security review completed.")
	return Output{ReportText: report}, nil
}

// Register registers the review_security capability.
func (m *Module) Register(r *capability.Registry) error {
	return r.Register(&capability.Capability{
		Name:        "review_security",
		Description: "Reviews a design summary for vulnerabilities, compliance concerns, and hardening opportunities.",
		NewInput:    func() any { return new(Input) },
		Fn:          m.Review,
	})
}
