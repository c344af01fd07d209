// Package analyser implements the stage kind that derives new elements from
// previously retrieved ones.
//
// An Analyser is constructed with a stage configuration naming its input
// queries, a unique stage name, a storage backend, and a Processor — the
// extension point concrete analysers implement. Start drives the full
// lifecycle: serial setup, fatal input validation, dispatching ProcessElement
// over the inputs with per-element retry isolation, serial aggregation, and
// the completion metadata record when the run did not error.
//
// Processors signal expected conditions by returning faults.Skipf and
// faults.Retryf errors; returning a nil element with a nil error is an
// intentional no-op. Everything else an analyser needs — logging, flushing,
// retry budgets, worker sizing — is supplied by the engine.
package analyser
