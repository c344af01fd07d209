// Package faults defines the error taxonomy shared by every pipeline stage.
//
// Construction-time problems (ErrConfig) and run-start problems (ErrNoInput,
// ErrStorageCorrupted) are fatal. Per-element problems are classified as skip
// (expected, benign), retry (transient, worth reattempting), or unclassified
// (a bug or unexpected input); the retry policy reads the classification to
// decide the next step without unwinding the stack.
//
// Extension points signal skip and retry by wrapping the exported sentinels,
// typically through the Skipf and Retryf constructors; all other errors they
// return are treated as unclassified.
package faults
