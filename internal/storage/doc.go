// Package storage defines the backend contract every triage store must
// satisfy and ships the local filesystem implementation.
//
// The Store interface is the only surface the phase engine and stages touch:
// resolving input queries to elements, decomposing queries, committing
// elements and metadata, and appending run logs. Backends are responsible for
// their own locking; every operation must be safe under concurrent calls from
// dispatcher workers.
//
// WriteElement reports a recoverable failure by returning false rather than an
// error so the retry policy can decide the next step without unwinding the
// stack, and it must be idempotent: re-writing the same element to the same
// destination never produces a second artifact.
//
// Backends that stage payloads locally before a remote commit honour the
// delete-local-on-write flag: when set, the local copy is removed after a
// successful commit. Stages disable the flag around the main batch so the
// post phase can still aggregate over local data, then restore the backend's
// default.
package storage
