package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// PlanPath points at the review plan HCL file.
	PlanPath string
	// DocumentPath is a local path or http(s) URL, exposed to the plan as
	// input.document.
	DocumentPath string
	// RulesPath points at the structural rules YAML, exposed as input.rules.
	RulesPath string

	LogFormat string
	LogLevel  string

	// StepTimeout caps one capability invocation attempt.
	StepTimeout time.Duration
	// MaxAttempts bounds retries of retriable step failures.
	MaxAttempts uint
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PlanPath == "" {
		return nil, errors.New("PlanPath is a required configuration field and cannot be empty")
	}
	if cfg.DocumentPath == "" {
		return nil, errors.New("a document to review is required (-doc)")
	}
	return &cfg, nil
}
