package element

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins the stage-name segments of a query.
const Separator = "/"

// ErrInvalidQuery indicates a query string that cannot address storage.
var ErrInvalidQuery = errors.New("invalid query")

// Query is a path-like string locating elements in storage. The first segment
// names the originating selector; each further segment names a stage applied
// since.
type Query string

// Validate checks the query is non-empty with no blank segments.
func (q Query) Validate() error {
	trimmed := strings.TrimSpace(string(q))
	if trimmed == "" {
		return fmt.Errorf("%w: empty query", ErrInvalidQuery)
	}
	for _, segment := range strings.Split(trimmed, Separator) {
		if strings.TrimSpace(segment) == "" {
			return fmt.Errorf("%w: blank segment in %q", ErrInvalidQuery, q)
		}
	}
	return nil
}

// Decompose splits the query into its selector name and the remaining chain.
// The remainder is empty for a bare selector query.
func (q Query) Decompose() (selector, remainder string, err error) {
	if err := q.Validate(); err != nil {
		return "", "", err
	}
	trimmed := strings.TrimSpace(string(q))
	selector, remainder, _ = strings.Cut(trimmed, Separator)
	return selector, remainder, nil
}

// Selector returns the originating selector name, or empty if the query is
// invalid.
func (q Query) Selector() string {
	selector, _, err := q.Decompose()
	if err != nil {
		return ""
	}
	return selector
}

// Descend appends a stage name, addressing that stage's outputs beneath q.
func (q Query) Descend(stage string) Query {
	if q == "" {
		return Query(stage)
	}
	return Query(string(q) + Separator + stage)
}

// Ascend strips the final segment, addressing the stage the query derives
// from. Ascending a bare selector query returns it unchanged.
func (q Query) Ascend() Query {
	idx := strings.LastIndex(string(q), Separator)
	if idx < 0 {
		return q
	}
	return q[:idx]
}

// Segments returns the stage-name chain as a slice.
func (q Query) Segments() []string {
	if q == "" {
		return nil
	}
	return strings.Split(string(q), Separator)
}

func (q Query) String() string { return string(q) }
