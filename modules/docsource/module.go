// Package docsource acquires the design document and produces the
// comprehensive summary every downstream reviewer works from.
package docsource

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"resty.dev/v3"

	"github.com/vk/archreview/internal/capability"
	"github.com/vk/archreview/internal/ctxlog"
	"github.com/vk/archreview/internal/llmtext"
	"github.com/vk/archreview/internal/runctx"
)

const systemPrompt = "You are an expert document processor. Your task is to extract all relevant " +
	"text from a given document and synthesize it into a comprehensive summary, " +
	"highlighting key aspects of the design proposal."

const summarizePrompt = "You are an expert document summarizer. Summarize the following document content " +
	"into a comprehensive, concise, and professional design proposal summary. " +
	"Highlight the main components, proposed architecture, key features, and any " +
	"dependencies or external integrations mentioned. Focus on technical details " +
	"relevant to an architecture review.\n\n" +
	"Document Content:\n%s\n\n" +
	"Comprehensive Design Proposal Summary:"

// Module implements the capability.Module interface for this package.
type Module struct {
	// Model is the fast summarization model.
	Model llms.Model
	// HTTP fetches http(s) document sources. Local paths bypass it.
	HTTP *resty.Client
}

// New creates the module over the given fast model and HTTP client.
func New(model llms.Model, httpClient *resty.Client) *Module {
	return &Module{Model: model, HTTP: httpClient}
}

// Input defines the arguments for the 'arguments' HCL block.
type Input struct {
	// Source is a local file path or an http(s) URL.
	Source string `hcl:"source"`
}

// Output is the summarization result exposed to downstream steps.
type Output struct {
	Summary string `cty:"summary"`
}

// Summarize reads the document at input.Source and condenses it with the
// fast model.
func (m *Module) Summarize(ctx context.Context, input *Input) (Output, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Acquiring document.", "source", input.Source)

	content, err := m.read(ctx, input.Source)
	if err != nil {
		return Output{}, err
	}
	logger.Debug("Document acquired.", "bytes", len(content))

	summary, err := llmtext.Complete(ctx, m.Model, systemPrompt,
		fmt.Sprintf(summarizePrompt, content),
		llms.WithMaxTokens(1000),
		llms.WithTemperature(0.2),
	)
	if err != nil {
		return Output{}, runctx.Transient(fmt.Errorf("summarization failed: %w", err))
	}

	logger.Info("Document summarized.")
	return Output{Summary: summary}, nil
}

// read resolves the source to raw document text. Remote sources must answer
// with a success status; anything else is retriable.
func (m *Module) read(ctx context.Context, source string) (string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		res, err := m.HTTP.R().SetContext(ctx).Get(source)
		if err != nil {
			return "", runctx.Transient(fmt.Errorf("failed to fetch document %q: %w", source, err))
		}
		if res.IsError() {
			return "", runctx.Transient(fmt.Errorf("failed to fetch document %q: status %d", source, res.StatusCode()))
		}
		return res.String(), nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("failed to read document %q: %w", source, err)
	}
	return string(data), nil
}

// Register registers the summarize_document capability.
func (m *Module) Register(r *capability.Registry) error {
	return r.Register(&capability.Capability{
		Name:        "summarize_document",
		Description: "Reads a design document from a file or URL and produces a comprehensive summary.",
		NewInput:    func() any { return new(Input) },
		Fn:          m.Summarize,
	})
}
