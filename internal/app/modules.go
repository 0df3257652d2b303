package app

import (
	"github.com/tmc/langchaingo/llms"
	"resty.dev/v3"

	"github.com/vk/archreview/internal/capability"
	"github.com/vk/archreview/modules/consolidate"
	"github.com/vk/archreview/modules/docsource"
	"github.com/vk/archreview/modules/secreview"
	"github.com/vk/archreview/modules/structcheck"
)

// coreModules is the definitive list of capability modules compiled into the
// archreview binary.
func coreModules(fast, complex llms.Model) []capability.Module {
	return []capability.Module{
		docsource.New(fast, resty.New()),
		structcheck.New(complex),
		secreview.New(complex),
		consolidate.New(complex),
	}
}
