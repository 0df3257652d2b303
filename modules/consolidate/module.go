// Package consolidate synthesizes the accumulated review fragments into the
// final architecture review document.
package consolidate

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/vk/archreview/internal/capability"
	"github.com/vk/archreview/internal/ctxlog"
	"github.com/vk/archreview/internal/llmtext"
	"github.com/vk/archreview/internal/runctx"
)

const systemPrompt = "You are the Lead Architect Reviewer. Your final task is to consolidate various " +
	"review reports (structural, security, etc.) into a single, cohesive, and " +
	"professional Final Architecture Review Document. Synthesize findings, highlight " +
	"key conclusions, and present actionable recommendations."

const consolidatePrompt = "As the Lead Architect Reviewer, synthesize the following review findings into a " +
	"single, professional, and comprehensive Final Architecture Review Document. " +
	"Provide an Executive Summary, detailed findings from each review section, and " +
	"clear, actionable recommendations.\n\n" +
	"Review Findings:\n%s\n\n" +
	"Final Architecture Review Document:"

// Module implements the capability.Module interface for this package.
type Module struct {
	Model llms.Model
}

// New creates the module over the given complex model.
func New(model llms.Model) *Module {
	return &Module{Model: model}
}

// Fragment is one report section as passed through fragment.all. Field names
// follow the fragment object type argument expressions see.
type Fragment struct {
	Step   string `cty:"step"`
	Title  string `cty:"title"`
	Body   string `cty:"body"`
	Failed bool   `cty:"failed"`
	Reason string `cty:"reason"`
}

// Input defines the arguments for the 'arguments' HCL block. Fragments arrive
// in plan declaration order.
type Input struct {
	Fragments []Fragment `hcl:"fragments"`
}

// Output carries the final document.
type Output struct {
	Document string `cty:"document"`
}

// Consolidate renders the ordered fragments and asks the model for the final
// document.
func (m *Module) Consolidate(ctx context.Context, input *Input) (Output, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Starting final report consolidation.", "fragments", len(input.Fragments))

	findings := renderFindings(input.Fragments)
	document, err := llmtext.Complete(ctx, m.Model, systemPrompt,
		fmt.Sprintf(consolidatePrompt, findings),
		llms.WithMaxTokens(1500),
		llms.WithTemperature(0.2),
	)
	if err != nil {
		return Output{}, runctx.Transient(fmt.Errorf("report consolidation failed: %w", err))
	}

	logger.Info("Final report consolidation completed.")
	return Output{Document: document}, nil
}

// renderFindings lays the fragments out as the model's review input,
// preserving their order. Failed reviews stay visible so the final document
// can acknowledge the gap.
func renderFindings(fragments []Fragment) string {
	var sb strings.Builder
	for _, f := range fragments {
		fmt.Fprintf(&sb, "%s:\n", f.Title)
		if f.Failed {
			fmt.Fprintf(&sb, "This review could not complete: %s\n\n", f.Reason)
			continue
		}
		fmt.Fprintf(&sb, "%s\n\n", f.Body)
	}
	if len(fragments) <= 1 {
		sb.WriteString("Detailed reviews were not performed or results were not available.\n")
	}
	return strings.TrimSpace(sb.String())
}

// Register registers the consolidate_reports capability.
func (m *Module) Register(r *capability.Registry) error {
	return r.Register(&capability.Capability{
		Name:        "consolidate_reports",
		Description: "Consolidates all review fragments into the final architecture review document.",
		NewInput:    func() any { return new(Input) },
		Fn:          m.Consolidate,
	})
}
