package selector

import (
	"context"

	"triage/internal/element"
	"triage/internal/module"
)

// Retriever is the extension point a concrete selector implements. Setup and
// Finalize have no-op defaults via NopRetriever; Index and RetrieveElement are
// the hooks every retriever must provide.
type Retriever interface {
	// OutType declares the element type this selector emits, recorded in the
	// completion metadata.
	OutType() element.EType

	// Setup runs once, serially, before indexing.
	Setup(ctx context.Context, cfg module.StageConfig) error

	// Index enumerates the elements to retrieve. An indexed element carries
	// whatever source addressing RetrieveElement needs in its Paths.
	Index(ctx context.Context, cfg module.StageConfig) ([]element.Element, error)

	// RetrieveElement materializes one indexed element, or returns nil for an
	// intentional no-op. Skip and retry conditions are signalled with
	// faults.Skipf and faults.Retryf.
	RetrieveElement(ctx context.Context, el element.Element, cfg module.StageConfig) (*element.Element, error)

	// Finalize runs once, serially, over all newly retrieved elements and may
	// emit one aggregate element.
	Finalize(ctx context.Context, elements []element.Element, cfg module.StageConfig) (*element.Element, error)
}

// NopRetriever provides default Setup and Finalize implementations for
// retrievers that only need the index and retrieve hooks.
type NopRetriever struct{}

// Setup is a no-op.
func (NopRetriever) Setup(context.Context, module.StageConfig) error { return nil }

// Finalize emits no aggregate element.
func (NopRetriever) Finalize(context.Context, []element.Element, module.StageConfig) (*element.Element, error) {
	return nil, nil
}
