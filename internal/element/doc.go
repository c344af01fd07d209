// Package element defines the unit of data flowing through a triage pipeline
// and the addressing scheme used to locate it in storage.
//
// An Element is a named, typed reference to stored media: it carries the query
// it currently lives under, its declared output type, and the local paths of
// its payload files. Elements are immutable once written; a stage never
// rewrites an existing element, it only emits new elements under its own query
// segment.
//
// A Query is a slash-separated path whose first segment names the originating
// selector and whose remaining segments name the chain of stages applied
// since. Decomposition is deterministic and reversible so stages can descend
// (append their name) and tooling can ascend (strip segments) without storage
// round-trips.
package element
