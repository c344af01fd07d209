// Package logging builds the slog loggers used across the triage engine and
// standardizes their structured fields.
//
// New constructs a console or JSON handler from Options; attr helpers keep
// call sites terse and field keys consistent (component, run_id, stage, phase,
// element_query, event_type). Context carriers let the phase engine annotate a
// context once and have every downstream logger pick the fields up through
// WithContext.
//
// The Buffer type accumulates the per-run log records a stage produces; the
// phase engine drains it into the storage backend at phase boundaries so run
// logs live next to the elements they describe, even when a phase aborts.
package logging
