package app

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/archreview/internal/ctxlog"
	"github.com/vk/archreview/internal/executor"
	"github.com/vk/archreview/internal/orchestrator"
)

// Run drives one orchestrated review of the configured document and prints
// the final report to the application's output writer.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Info("Starting review run.", "plan", a.config.PlanPath, "document", a.config.DocumentPath)

	inputs := map[string]cty.Value{
		"document": cty.StringVal(a.config.DocumentPath),
		"rules":    cty.StringVal(a.config.RulesPath),
	}

	exec := executor.New(a.registry, executor.Options{
		StepTimeout: a.config.StepTimeout,
		MaxAttempts: a.config.MaxAttempts,
	})
	orch := orchestrator.New(a.registry, exec)

	outcome, err := orch.Run(ctx, a.plan, inputs)
	if err != nil {
		return fmt.Errorf("review run %s failed: %w", outcome.RunID, err)
	}

	if outcome.Degraded {
		a.logger.Warn("Report is degraded, some reviews did not complete.", "failed_steps", outcome.FailedSteps)
	}

	fmt.Fprintln(a.outW, outcome.Report)
	return nil
}
