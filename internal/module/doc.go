// Package module implements the lifecycle template every pipeline stage
// follows.
//
// A stage is three phases: pre (serial, run-once setup), main (fanned out over
// elements by the dispatcher), and post (serial aggregation over the newly
// written elements). Core carries the per-run state shared by the phases: the
// stage identity, the dispatch mode, the monotonic errored flag, and the
// destination query — written once before dispatch and read by every worker
// through an atomic cell.
//
// RunPhase wraps a phase body with entry logging and the flush guarantee: the
// buffered run-log records are drained to storage when the phase completes and
// when it aborts, so a failed run still leaves its logs next to its elements.
package module
