// Package localdir implements the built-in selector that indexes media files
// from a directory on the local filesystem and retrieves them into storage.
package localdir

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"triage/internal/element"
	"triage/internal/faults"
	"triage/internal/module"
	"triage/internal/selector"
)

// Name is the registry name of this selector.
const Name = "localdir"

// OutputType is the element type emitted by this selector.
const OutputType = element.EType("media/file")

// defaultExtensions are the media files indexed when the stage options don't
// narrow the set.
var defaultExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp",
	".mp4", ".mov", ".avi", ".mkv", ".webm",
	".mp3", ".wav", ".ogg",
}

// Retriever indexes a source directory and retrieves each matching file.
type Retriever struct {
	selector.NopRetriever

	sourceDir  string
	extensions map[string]struct{}
}

// New returns an unconfigured retriever; Setup reads the stage options.
func New() *Retriever {
	return &Retriever{}
}

// OutType implements selector.Retriever.
func (r *Retriever) OutType() element.EType { return OutputType }

// Setup validates the source_dir option and resolves the extension filter.
func (r *Retriever) Setup(ctx context.Context, cfg module.StageConfig) error {
	dir := cfg.StringOption("source_dir")
	if strings.TrimSpace(dir) == "" {
		return faults.Configf("the localdir selector requires a 'source_dir' option")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return faults.Wrap(faults.ErrConfig, "source_dir is not accessible", err)
	}
	if !info.IsDir() {
		return faults.Configf("source_dir %q is not a directory", dir)
	}
	r.sourceDir = dir

	exts := defaultExtensions
	if raw, ok := cfg.Option("extensions"); ok {
		exts = nil
		list, ok := raw.([]any)
		if !ok {
			return faults.Configf("the 'extensions' option must be a list of suffixes")
		}
		for _, item := range list {
			ext, ok := item.(string)
			if !ok {
				return faults.Configf("the 'extensions' option must be a list of suffixes")
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			exts = append(exts, strings.ToLower(ext))
		}
	}
	r.extensions = make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		r.extensions[ext] = struct{}{}
	}
	return nil
}

// Index walks the source directory and emits one element per matching file.
// Identifiers derive from the relative path so re-running the selector lands
// on the same stored artifacts.
func (r *Retriever) Index(ctx context.Context, cfg module.StageConfig) ([]element.Element, error) {
	var indexed []element.Element
	err := filepath.WalkDir(r.sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := r.extensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		rel, err := filepath.Rel(r.sourceDir, path)
		if err != nil {
			return err
		}
		indexed = append(indexed, element.Element{
			ID:    elementID(rel),
			EType: OutputType,
			Paths: []string{path},
		})
		return nil
	})
	if err != nil {
		return nil, faults.Wrap(faults.ErrConfig, "walking source_dir", err)
	}
	return indexed, nil
}

// RetrieveElement confirms the indexed file is still readable. The storage
// backend copies the payload when the element is written.
func (r *Retriever) RetrieveElement(ctx context.Context, el element.Element, cfg module.StageConfig) (*element.Element, error) {
	if len(el.Paths) == 0 {
		return nil, faults.Skipf("indexed element has no source path")
	}
	if _, err := os.Stat(el.Paths[0]); err != nil {
		return nil, faults.Skipf("source file no longer present: %v", err)
	}
	out := el
	return &out, nil
}

// elementID turns a relative file path into a stable element identifier.
func elementID(rel string) string {
	id := strings.TrimSuffix(rel, filepath.Ext(rel))
	id = strings.ReplaceAll(id, string(filepath.Separator), "-")
	id = strings.ReplaceAll(id, " ", "_")
	return id
}
