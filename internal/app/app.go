package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/archreview/internal/capability"
	"github.com/vk/archreview/internal/plan"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *capability.Registry
	plan     *plan.Plan
}

// New is the constructor for the main application. It returns a fully
// initialized App with its own isolated logger and registry, or the startup
// error that prevented initialization. When modules is empty the built-in
// capability modules are registered, which requires model credentials in the
// environment.
func New(outW io.Writer, errW io.Writer, cfg *Config, modules ...capability.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		fast, complex, err := newModels()
		if err != nil {
			return nil, err
		}
		modules = coreModules(fast, complex)
	}

	reg := capability.New()
	for _, mod := range modules {
		if err := mod.Register(reg); err != nil {
			return nil, fmt.Errorf("failed to register capability module: %w", err)
		}
	}
	logger.Debug("All capability modules registered.", "capabilities", reg.Names())

	p, err := plan.LoadFile(cfg.PlanPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("Review plan loaded.", "path", cfg.PlanPath, "steps", len(p.Steps))

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		plan:     p,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *capability.Registry {
	return a.registry
}

// Plan returns the loaded review plan. This is primarily for testing.
func (a *App) Plan() *plan.Plan {
	return a.plan
}
