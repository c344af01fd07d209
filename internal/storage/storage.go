package storage

import (
	"context"

	"triage/internal/element"
)

// Meta is the completion record a stage persists once on success. Downstream
// stages and tooling read it to discover the output type without touching
// payloads; its absence means the stage did not complete.
type Meta struct {
	EType  element.EType  `json:"etype"`
	Config map[string]any `json:"config"`
	Stage  StageInfo      `json:"stage"`
}

// StageInfo identifies the stage that produced a metadata record.
type StageInfo struct {
	Name   string `json:"name"`
	Module string `json:"module"`
}

// Store is the port every storage backend implements.
type Store interface {
	// ReadElements resolves the input queries to their constituent elements.
	// An unreadable or inconsistent location fails with a
	// faults.ErrStorageCorrupted-wrapped error.
	ReadElements(ctx context.Context, queries []element.Query) ([]element.Element, error)

	// ReadQuery decomposes a query into its selector name and remainder.
	// The canonical implementation is pure; backends may layer side effects
	// but must preserve the decomposition contract.
	ReadQuery(q element.Query) (selector, remainder string, err error)

	// WriteElement persists one element under dest. It returns false on a
	// recoverable failure so the caller can retry, and is idempotent under
	// retry.
	WriteElement(ctx context.Context, dest element.Query, el element.Element) bool

	// WriteMeta persists the stage completion record under dest. Called at
	// most once per run, only on success.
	WriteMeta(ctx context.Context, dest element.Query, meta Meta) error

	// ReadMeta loads a previously written completion record, reporting
	// whether one exists.
	ReadMeta(ctx context.Context, dest element.Query) (Meta, bool, error)

	// AppendLogs persists buffered run-log lines under dest.
	AppendLogs(ctx context.Context, dest element.Query, lines []string) error

	// SetDeleteLocalOnWrite toggles removal of local payload copies after a
	// successful commit.
	SetDeleteLocalOnWrite(enabled bool)

	// DeleteLocalOnWrite reports the current flag value.
	DeleteLocalOnWrite() bool
}
