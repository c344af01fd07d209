package main

import (
	"triage/internal/analyser"
	"triage/internal/analysers/passthrough"
	"triage/internal/registry"
	"triage/internal/selector"
	"triage/internal/selectors/localdir"
)

// newBuiltinRegistry registers the components shipped with the CLI.
func newBuiltinRegistry() *registry.Registry {
	reg := registry.New()
	// Built-in names are distinct constants; registration cannot collide.
	_ = reg.RegisterRetriever(localdir.Name, func() selector.Retriever { return localdir.New() })
	_ = reg.RegisterProcessor(passthrough.Name, func() analyser.Processor { return passthrough.New() })
	return reg
}
