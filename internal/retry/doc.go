// Package retry implements the per-element attempt loop every stage runs its
// extension point through.
//
// Each element starts with a bounded attempt budget (five by default). A skip
// error ends the element immediately without counting against the run; a
// retryable error consumes an attempt and re-invokes; exhausting the budget
// marks the element failed and flags the run as errored. Unclassified errors
// are a policy decision: strict mode propagates them so a bug aborts the run
// where it happened, production mode records them and moves to the next
// element.
package retry
