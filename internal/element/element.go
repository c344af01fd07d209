package element

import (
	"strings"

	"github.com/google/uuid"
)

// EType tags the media type a stage emits, e.g. "media/file" or "image/frames".
type EType string

// Element is an addressed reference to one unit of media plus provenance.
// The payload itself is never held in memory; Paths point at the local files
// backing it.
type Element struct {
	ID    string
	Query Query
	EType EType
	Paths []string
}

// NewElement builds an element with a freshly minted identifier.
func NewElement(q Query, etype EType, paths ...string) Element {
	return Element{
		ID:    uuid.NewString(),
		Query: q,
		EType: etype,
		Paths: paths,
	}
}

// EnsureID mints an identifier if the element does not carry one.
func (e *Element) EnsureID() {
	if strings.TrimSpace(e.ID) == "" {
		e.ID = uuid.NewString()
	}
}

// Derive returns a copy of e re-addressed under dest, preserving the identifier
// so retried writes land on the same stored artifact.
func (e Element) Derive(dest Query, etype EType, paths ...string) Element {
	out := Element{
		ID:    e.ID,
		Query: dest,
		EType: etype,
		Paths: paths,
	}
	out.EnsureID()
	return out
}
