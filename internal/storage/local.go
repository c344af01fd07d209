package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"triage/internal/element"
	"triage/internal/faults"
	"triage/internal/logging"
)

const (
	metaFileName = "meta.json"
	logsFileName = "logs.txt"
)

// LocalStore persists elements on the local filesystem. A selector query maps
// to a directory under the base dir holding one subdirectory per element;
// derived outputs nest inside each element's directory under the remaining
// query segments, so base/sel/<id>/frames holds what the query "sel/frames"
// addresses for that element. Completion metadata and run logs are files in
// the selector directory, named after the query's trailing segments.
type LocalStore struct {
	base   string
	logger *slog.Logger

	mu               sync.Mutex
	deleteLocal      bool
	defaultDeleteLoc bool
}

// LocalOption customizes LocalStore construction.
type LocalOption func(*LocalStore)

// WithLogger attaches a logger for write diagnostics.
func WithLogger(logger *slog.Logger) LocalOption {
	return func(s *LocalStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDeleteLocalOnWrite sets the backend default for local-copy removal.
func WithDeleteLocalOnWrite(enabled bool) LocalOption {
	return func(s *LocalStore) {
		s.deleteLocal = enabled
		s.defaultDeleteLoc = enabled
	}
}

// NewLocalStore opens a store rooted at baseDir, creating it if needed.
func NewLocalStore(baseDir string, opts ...LocalOption) (*LocalStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("storage base dir must be set")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure storage base dir: %w", err)
	}
	store := &LocalStore{base: baseDir, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// BaseDir returns the directory the store is rooted at.
func (s *LocalStore) BaseDir() string { return s.base }

func (s *LocalStore) selectorDir(q element.Query) string {
	return filepath.Join(s.base, q.Selector())
}

// elementDir locates the payload directory for one element of q: directly
// under the selector for a retrieval query, nested inside the element for a
// derived query.
func (s *LocalStore) elementDir(q element.Query, id string) string {
	segments := q.Segments()
	parts := append([]string{s.base, segments[0], id}, segments[1:]...)
	return filepath.Join(parts...)
}

// metaPath names the completion record file for q. The trailing query
// segments become a file name prefix so derived records sit beside the
// element directories without colliding with them.
func (s *LocalStore) metaPath(q element.Query) string {
	return s.recordPath(q, metaFileName)
}

func (s *LocalStore) logsPath(q element.Query) string {
	return s.recordPath(q, logsFileName)
}

func (s *LocalStore) recordPath(q element.Query, name string) string {
	segments := q.Segments()
	if len(segments) == 1 {
		return filepath.Join(s.base, segments[0], name)
	}
	prefix := strings.Join(segments[1:], ".")
	return filepath.Join(s.base, segments[0], prefix+"."+name)
}

// ReadQuery decomposes q. Pure: no filesystem access.
func (s *LocalStore) ReadQuery(q element.Query) (string, string, error) {
	return q.Decompose()
}

// ReadElements resolves each query directory to its element subdirectories.
func (s *LocalStore) ReadElements(ctx context.Context, queries []element.Query) ([]element.Element, error) {
	var out []element.Element
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		elements, err := s.readQueryElements(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, elements...)
	}
	return out, nil
}

func (s *LocalStore) readQueryElements(ctx context.Context, q element.Query) ([]element.Element, error) {
	if err := q.Validate(); err != nil {
		return nil, faults.Wrap(faults.ErrStorageCorrupted, "resolve query", err)
	}

	dir := s.selectorDir(q)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, faults.Wrap(faults.ErrStorageCorrupted, fmt.Sprintf("read query %q", q), err)
	}

	etype := element.EType("")
	if meta, ok, metaErr := s.ReadMeta(ctx, q); metaErr == nil && ok {
		etype = meta.EType
	}

	derived := len(q.Segments()) > 1

	var out []element.Element
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		payloadDir := s.elementDir(q, entry.Name())
		if derived {
			// Only elements this stage actually produced carry the nested
			// payload directory.
			if _, statErr := os.Stat(payloadDir); statErr != nil {
				if errors.Is(statErr, fs.ErrNotExist) {
					continue
				}
				return nil, faults.Wrap(faults.ErrStorageCorrupted, fmt.Sprintf("read element %q", entry.Name()), statErr)
			}
		}
		paths, err := listFiles(payloadDir)
		if err != nil {
			return nil, faults.Wrap(faults.ErrStorageCorrupted, fmt.Sprintf("read element %q", entry.Name()), err)
		}
		out = append(out, element.Element{
			ID:    entry.Name(),
			Query: q,
			EType: etype,
			Paths: paths,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// WriteElement commits el under dest. Returns false on any recoverable
// filesystem failure; the retry policy owns the next step.
func (s *LocalStore) WriteElement(ctx context.Context, dest element.Query, el element.Element) bool {
	if err := ctx.Err(); err != nil {
		return false
	}
	if err := dest.Validate(); err != nil {
		s.logger.Error("element write rejected", logging.String(logging.FieldElementQuery, dest.String()), logging.Error(err))
		return false
	}
	if strings.TrimSpace(el.ID) == "" {
		s.logger.Error("element write rejected: missing identifier", logging.String(logging.FieldElementQuery, dest.String()))
		return false
	}

	elementDir := s.elementDir(dest, el.ID)
	if err := os.MkdirAll(elementDir, 0o755); err != nil {
		s.logger.Error("element write failed", logging.String(logging.FieldElementQuery, dest.String()), logging.Error(err))
		return false
	}

	written := make([]string, 0, len(el.Paths))
	for _, src := range el.Paths {
		dst := filepath.Join(elementDir, filepath.Base(src))
		if src == dst {
			written = append(written, dst)
			continue
		}
		if err := copyFile(src, dst); err != nil {
			s.logger.Error("element payload copy failed",
				logging.String(logging.FieldElementQuery, dest.String()),
				logging.String("source", src),
				logging.Error(err))
			return false
		}
		written = append(written, dst)
	}

	if s.DeleteLocalOnWrite() {
		s.removeLocalCopies(el.Paths, written)
	}
	return true
}

func (s *LocalStore) removeLocalCopies(sources, written []string) {
	committed := make(map[string]struct{}, len(written))
	for _, path := range written {
		committed[path] = struct{}{}
	}
	for _, src := range sources {
		if _, ok := committed[src]; ok {
			continue
		}
		if err := os.Remove(src); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("local copy cleanup failed", logging.String("source", src), logging.Error(err))
		}
	}
}

// WriteMeta persists the completion record as JSON under dest.
func (s *LocalStore) WriteMeta(ctx context.Context, dest element.Query, meta Meta) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := dest.Validate(); err != nil {
		return err
	}
	path := s.metaPath(dest)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure meta dir: %w", err)
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return nil
}

// ReadMeta loads a completion record if one was written under dest.
func (s *LocalStore) ReadMeta(ctx context.Context, dest element.Query) (Meta, bool, error) {
	if err := ctx.Err(); err != nil {
		return Meta{}, false, err
	}
	if err := dest.Validate(); err != nil {
		return Meta{}, false, err
	}
	data, err := os.ReadFile(s.metaPath(dest))
	if errors.Is(err, fs.ErrNotExist) {
		return Meta{}, false, nil
	}
	if err != nil {
		return Meta{}, false, fmt.Errorf("read meta: %w", err)
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}, false, faults.Wrap(faults.ErrStorageCorrupted, "decode meta", err)
	}
	return meta, true, nil
}

// AppendLogs appends run-log lines to the logs file under dest.
func (s *LocalStore) AppendLogs(ctx context.Context, dest element.Query, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := dest.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.logsPath(dest)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure logs dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open logs file: %w", err)
	}
	defer file.Close()

	for _, line := range lines {
		if _, err := io.WriteString(file, line+"\n"); err != nil {
			return fmt.Errorf("append log line: %w", err)
		}
	}
	return file.Close()
}

// SetDeleteLocalOnWrite toggles local-copy removal after commit.
func (s *LocalStore) SetDeleteLocalOnWrite(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocal = enabled
}

// DeleteLocalOnWrite reports the current flag value.
func (s *LocalStore) DeleteLocalOnWrite() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocal
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
