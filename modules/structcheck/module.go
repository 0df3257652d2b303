// Package structcheck validates a design summary against the declared
// structural rules and emits the verdict that drives the critical-error
// branch.
package structcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/vk/archreview/internal/capability"
	"github.com/vk/archreview/internal/ctxlog"
	"github.com/vk/archreview/internal/llmtext"
	"github.com/vk/archreview/internal/rules"
	"github.com/vk/archreview/internal/runctx"
)

const systemPrompt = "You are a meticulous architectural document structural validator. " +
	"Your task is to review a design proposal summary against a set of structural rules. " +
	"For each rule, determine if it's met, violated, or not applicable. " +
	"Identify if any *critical* rules are violated. " +
	"Generate a detailed report in JSON format, indicating the rule evaluation and " +
	"a boolean flag for 'has_critical_errors'. If critical errors are found, " +
	"provide a concise reason. The JSON should be wrapped in ```json tags."

const validatePrompt = "As an architectural document structural validator, analyze the following design " +
	"proposal summary against the provided structural rules. For each rule, state if " +
	"it's 'Met', 'Violated', or 'Not Applicable'. If violated, provide a brief explanation. " +
	"Finally, determine if any *critical* rules are violated. " +
	"Output your findings as a JSON object with 'rule_evaluations' (list of rule id, " +
	"status, explanation) and 'has_critical_errors' (boolean). If 'has_critical_errors' " +
	"is true, include a 'critical_error_reason' string.\n\n" +
	"Design Proposal Summary:\n%s\n\n" +
	"Structural Rules:\n%s\n\n" +
	"JSON Report:"

// rawPreviewLen bounds how much of an unparsable model response is quoted in
// the fallback verdict.
const rawPreviewLen = 200

// Module implements the capability.Module interface for this package.
type Module struct {
	// Model is the complex reasoning model.
	Model llms.Model
}

// New creates the module over the given complex model.
func New(model llms.Model) *Module {
	return &Module{Model: model}
}

// Input defines the arguments for the 'arguments' HCL block.
type Input struct {
	Summary   string `hcl:"summary"`
	RulesPath string `hcl:"rules_path"`
}

// Output is the structural verdict. HasCriticalErrors feeds the branch
// decision; ReportText becomes this step's report fragment.
type Output struct {
	HasCriticalErrors   bool   `cty:"has_critical_errors"`
	CriticalErrorReason string `cty:"critical_error_reason"`
	ReportText          string `cty:"report_text"`
}

type ruleEvaluation struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Explanation string `json:"explanation,omitempty"`
}

type verdict struct {
	RuleEvaluations     []ruleEvaluation `json:"rule_evaluations"`
	HasCriticalErrors   bool             `json:"has_critical_errors"`
	CriticalErrorReason string           `json:"critical_error_reason,omitempty"`
}

// Validate evaluates the summary against the rule set and renders the
// verdict. A response the model serves as malformed JSON is treated as a
// critical structural error, not as a step failure.
func (m *Module) Validate(ctx context.Context, input *Input) (Output, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Starting structural validation.", "rules_path", input.RulesPath)

	ruleSet, err := rules.Load(input.RulesPath)
	if err != nil {
		return Output{}, err
	}
	logger.Debug("Structural rules loaded.", "count", len(ruleSet))

	raw, err := llmtext.Complete(ctx, m.Model, systemPrompt,
		fmt.Sprintf(validatePrompt, input.Summary, rules.Format(ruleSet)),
		llms.WithMaxTokens(1500),
		llms.WithTemperature(0.0),
	)
	if err != nil {
		return Output{}, runctx.Transient(fmt.Errorf("structural validation failed: %w", err))
	}

	report := stripJSONFence(raw)
	var v verdict
	if err := json.Unmarshal([]byte(report), &v); err != nil {
		logger.Warn("Validator response is not valid JSON, treating as critical.", "error", err)
		reason := fmt.Sprintf("validator produced malformed JSON output: %s. Raw output: %s", err, preview(report))
		return Output{
			HasCriticalErrors:   true,
			CriticalErrorReason: reason,
			ReportText:          "Structural Validation Failed: malformed response from validator. " + reason,
		}, nil
	}

	logger.Info("Structural validation completed.", "has_critical_errors", v.HasCriticalErrors)
	return Output{
		HasCriticalErrors:   v.HasCriticalErrors,
		CriticalErrorReason: v.CriticalErrorReason,
		ReportText:          renderReport(v),
	}, nil
}

// stripJSONFence removes a surrounding ```json markdown fence when present.
func stripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") && strings.HasSuffix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSuffix(s, "```")
		return strings.TrimSpace(s)
	}
	return s
}

func preview(s string) string {
	if len(s) <= rawPreviewLen {
		return s
	}
	return s[:rawPreviewLen] + "..."
}

// renderReport produces the human-readable fragment from the parsed verdict.
func renderReport(v verdict) string {
	var sb strings.Builder
	sb.WriteString("Structural Validation Report:\n")
	for _, eval := range v.RuleEvaluations {
		fmt.Fprintf(&sb, "- Rule %s: %s", eval.ID, eval.Status)
		if eval.Explanation != "" {
			fmt.Fprintf(&sb, " (%s)", eval.Explanation)
		}
		sb.WriteString("\n")
	}
	if v.HasCriticalErrors {
		reason := v.CriticalErrorReason
		if reason == "" {
			reason = "reason not provided"
		}
		fmt.Fprintf(&sb, "\nCRITICAL ERRORS DETECTED: %s\n", reason)
	} else {
		sb.WriteString("\nNo critical structural errors detected.\n")
	}
	return sb.String()
}

// Register registers the validate_structure capability.
func (m *Module) Register(r *capability.Registry) error {
	return r.Register(&capability.Capability{
		Name:        "validate_structure",
		Description: "Validates a design summary against structural rules and reports critical violations.",
		NewInput:    func() any { return new(Input) },
		Fn:          m.Validate,
	})
}
