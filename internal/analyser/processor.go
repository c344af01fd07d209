package analyser

import (
	"context"

	"triage/internal/element"
	"triage/internal/module"
)

// Processor is the extension point a concrete analyser implements. Setup and
// Finalize have no-op defaults via NopProcessor; ProcessElement is the
// per-element hook the dispatcher fans out.
type Processor interface {
	// OutType declares the element type this analyser emits, recorded in the
	// completion metadata.
	OutType() element.EType

	// Setup runs once, serially, before any element is processed.
	Setup(ctx context.Context, cfg module.StageConfig) error

	// ProcessElement derives a new element from el, or returns nil for an
	// intentional no-op. Skip and retry conditions are signalled with
	// faults.Skipf and faults.Retryf.
	ProcessElement(ctx context.Context, el element.Element, cfg module.StageConfig) (*element.Element, error)

	// Finalize runs once, serially, over all newly written elements and may
	// emit one aggregate element.
	Finalize(ctx context.Context, elements []element.Element, cfg module.StageConfig) (*element.Element, error)
}

// NopProcessor provides default Setup and Finalize implementations for
// processors that only need the per-element hook.
type NopProcessor struct{}

// OutType returns the empty type; concrete processors should override it.
func (NopProcessor) OutType() element.EType { return "" }

// Setup is a no-op.
func (NopProcessor) Setup(context.Context, module.StageConfig) error { return nil }

// Finalize emits no aggregate element.
func (NopProcessor) Finalize(context.Context, []element.Element, module.StageConfig) (*element.Element, error) {
	return nil, nil
}
