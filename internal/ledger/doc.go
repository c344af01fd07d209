// Package ledger persists a durable record of pipeline stage runs in SQLite.
//
// Each completed Start of a selector or analyser is recorded as one row: run
// identifier, stage name and kind, the destination query the run published,
// wall-clock timings, the errored flag, and per-outcome element counts. The
// CLI writes a row after every run and reads the ledger back for run listing
// and inspection. The database lives under the configured ledger directory
// and is opened with WAL journaling and a busy timeout so a listing command
// can run while a pipeline is writing.
package ledger
