// Package dispatch fans a stage's main phase out over its input elements.
//
// In parallel mode the per-element function runs on a host-sized errgroup
// worker pool; in serial mode it runs in the calling goroutine, which keeps
// tests deterministic. Either way every element is attempted — a failed
// element never stops the batch — and the summary reports how many elements
// reached each terminal outcome. The one exception is an abort error from the
// retry policy (strict mode), which cancels the remaining workers and
// propagates.
package dispatch
