package testsupport

import (
	"context"
	"io/fs"
	"sort"
	"sync"

	"triage/internal/element"
	"triage/internal/faults"
	"triage/internal/storage"
)

// MemStore is an in-memory storage.Store with failure injection for stage and
// retry tests. All operations are safe under concurrent dispatcher workers.
type MemStore struct {
	mu          sync.Mutex
	elements    map[element.Query]map[string]element.Element
	metas       map[element.Query]storage.Meta
	logs        map[element.Query][]string
	deleteLocal bool

	readErr    error
	failWrites int
	writeCalls int
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		elements: map[element.Query]map[string]element.Element{},
		metas:    map[element.Query]storage.Meta{},
		logs:     map[element.Query][]string{},
	}
}

// Seed stores an element under q without going through WriteElement.
func (s *MemStore) Seed(q element.Query, els ...element.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.elements[q]
	if bucket == nil {
		bucket = map[string]element.Element{}
		s.elements[q] = bucket
	}
	for _, el := range els {
		el.Query = q
		el.EnsureID()
		bucket[el.ID] = el
	}
}

// SetReadError makes every subsequent ReadElements fail with err.
func (s *MemStore) SetReadError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// FailNextWrites makes the next n WriteElement calls report false.
func (s *MemStore) FailNextWrites(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = n
}

// WriteCalls reports how many times WriteElement was invoked.
func (s *MemStore) WriteCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeCalls
}

// Elements returns the stored elements under q, ordered by identifier.
func (s *MemStore) Elements(q element.Query) []element.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked(q)
}

// Meta returns the completion record under q, if any.
func (s *MemStore) Meta(q element.Query) (storage.Meta, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, ok := s.metas[q]
	return meta, ok
}

// Logs returns the flushed run-log lines under q.
func (s *MemStore) Logs(q element.Query) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.logs[q]...)
}

func (s *MemStore) sortedLocked(q element.Query) []element.Element {
	bucket := s.elements[q]
	out := make([]element.Element, 0, len(bucket))
	for _, el := range bucket {
		out = append(out, el)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ReadElements implements storage.Store.
func (s *MemStore) ReadElements(ctx context.Context, queries []element.Query) ([]element.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	var out []element.Element
	for _, q := range queries {
		if _, ok := s.elements[q]; !ok {
			// Absent queries mirror the local backend: the corruption marker
			// plus fs.ErrNotExist so stages can tell "never written" apart
			// from a damaged destination.
			return nil, faults.Wrap(faults.ErrStorageCorrupted, "read query "+q.String(), fs.ErrNotExist)
		}
		out = append(out, s.sortedLocked(q)...)
	}
	return out, nil
}

// ReadQuery implements storage.Store via pure decomposition.
func (s *MemStore) ReadQuery(q element.Query) (string, string, error) {
	return q.Decompose()
}

// WriteElement implements storage.Store. Idempotent: rewriting the same
// element identifier replaces the stored artifact.
func (s *MemStore) WriteElement(ctx context.Context, dest element.Query, el element.Element) bool {
	if err := ctx.Err(); err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeCalls++
	if s.failWrites > 0 {
		s.failWrites--
		return false
	}
	if el.ID == "" || dest.Validate() != nil {
		return false
	}
	bucket := s.elements[dest]
	if bucket == nil {
		bucket = map[string]element.Element{}
		s.elements[dest] = bucket
	}
	el.Query = dest
	bucket[el.ID] = el
	return true
}

// WriteMeta implements storage.Store.
func (s *MemStore) WriteMeta(ctx context.Context, dest element.Query, meta storage.Meta) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metas[dest] = meta
	return nil
}

// ReadMeta implements storage.Store.
func (s *MemStore) ReadMeta(ctx context.Context, dest element.Query) (storage.Meta, bool, error) {
	if err := ctx.Err(); err != nil {
		return storage.Meta{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, ok := s.metas[dest]
	return meta, ok, nil
}

// AppendLogs implements storage.Store.
func (s *MemStore) AppendLogs(ctx context.Context, dest element.Query, lines []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[dest] = append(s.logs[dest], lines...)
	return nil
}

// SetDeleteLocalOnWrite implements storage.Store.
func (s *MemStore) SetDeleteLocalOnWrite(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocal = enabled
}

// DeleteLocalOnWrite implements storage.Store.
func (s *MemStore) DeleteLocalOnWrite() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocal
}
