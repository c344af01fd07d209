// Package selector implements the stage kind that originates elements: it
// indexes an external source and retrieves each indexed element into storage
// under the selector's own query segment.
//
// A Selector is constructed with a stage configuration, a unique stage name, a
// storage backend, and a Retriever. Unlike an analyser it has no input queries;
// Index produces the work list and RetrieveElement materializes each entry.
// Retry isolation, log flushing, and the completion metadata record follow the
// same lifecycle as the analyser stage.
package selector
