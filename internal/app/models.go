package app

import (
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Two-tier model selection: summarization runs on a cheap fast model, the
// reviewers and the lead consolidation on a stronger one.
const (
	defaultFastModel    = "gpt-4o-mini"
	defaultComplexModel = "gpt-4o"
)

// newModels builds the fast and complex chat model clients. The API key is
// read from OPENAI_API_KEY by the client itself; model names and an optional
// base URL come from ARCHREVIEW_FAST_MODEL, ARCHREVIEW_COMPLEX_MODEL, and
// OPENAI_BASE_URL.
func newModels() (fast llms.Model, complex llms.Model, err error) {
	fast, err = newModel(envOr("ARCHREVIEW_FAST_MODEL", defaultFastModel))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build fast model client: %w", err)
	}
	complex, err = newModel(envOr("ARCHREVIEW_COMPLEX_MODEL", defaultComplexModel))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build complex model client: %w", err)
	}
	return fast, complex, nil
}

func newModel(name string) (llms.Model, error) {
	opts := []openai.Option{openai.WithModel(name)}
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		opts = append(opts, openai.WithBaseURL(base))
	}
	return openai.New(opts...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
