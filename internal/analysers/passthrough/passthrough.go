// Package passthrough implements the built-in analyser that copies its input
// elements unchanged under its own query segment. It is the smallest real
// processor and the usual first step when wiring a new pipeline.
package passthrough

import (
	"context"

	"triage/internal/analyser"
	"triage/internal/element"
	"triage/internal/module"
)

// Name is the registry name of this analyser.
const Name = "passthrough"

// Processor copies elements verbatim.
type Processor struct {
	analyser.NopProcessor
}

// New returns a passthrough processor.
func New() *Processor {
	return &Processor{}
}

// OutType implements analyser.Processor. Individual elements keep their own
// type; this is the fallback recorded in the completion metadata.
func (*Processor) OutType() element.EType { return "media/file" }

// ProcessElement returns the input unchanged. The stage assigns the
// destination query and keeps the element's identity and payload paths.
func (*Processor) ProcessElement(ctx context.Context, el element.Element, cfg module.StageConfig) (*element.Element, error) {
	out := el
	return &out, nil
}
