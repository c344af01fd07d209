package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"triage/internal/element"
	"triage/internal/faults"
	"triage/internal/storage"
)

func newStore(t *testing.T, opts ...storage.LocalOption) *storage.LocalStore {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir(), opts...)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return store
}

func writePayload(t *testing.T, dir, name, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir payload dir: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	return path
}

func TestWriteAndReadElements(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	payload := writePayload(t, t.TempDir(), "clip.mp4", "frames")
	el := element.NewElement("youtube", "media/file", payload)

	if ok := store.WriteElement(ctx, "youtube", el); !ok {
		t.Fatal("expected write to succeed")
	}

	elements, err := store.ReadElements(ctx, []element.Query{"youtube"})
	if err != nil {
		t.Fatalf("ReadElements: %v", err)
	}
	if len(elements) != 1 {
		t.Fatalf("expected one element, got %d", len(elements))
	}
	if elements[0].ID != el.ID {
		t.Fatalf("unexpected element id: got %q want %q", elements[0].ID, el.ID)
	}
	if len(elements[0].Paths) != 1 || filepath.Base(elements[0].Paths[0]) != "clip.mp4" {
		t.Fatalf("unexpected payload paths: %v", elements[0].Paths)
	}
}

func TestWriteElementIsIdempotent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	payload := writePayload(t, t.TempDir(), "clip.mp4", "frames")
	el := element.NewElement("youtube", "media/file", payload)

	for i := 0; i < 3; i++ {
		if ok := store.WriteElement(ctx, "youtube", el); !ok {
			t.Fatalf("write attempt %d failed", i+1)
		}
	}

	elements, err := store.ReadElements(ctx, []element.Query{"youtube"})
	if err != nil {
		t.Fatalf("ReadElements: %v", err)
	}
	if len(elements) != 1 {
		t.Fatalf("retried writes produced %d stored artifacts, want 1", len(elements))
	}
}

func TestWriteElementRejectsMissingPayload(t *testing.T) {
	store := newStore(t)
	el := element.NewElement("youtube", "media/file", filepath.Join(t.TempDir(), "missing.mp4"))
	if ok := store.WriteElement(context.Background(), "youtube", el); ok {
		t.Fatal("expected write of missing payload to report false")
	}
}

func TestReadElementsUnreadableQueryIsCorrupted(t *testing.T) {
	store := newStore(t)
	_, err := store.ReadElements(context.Background(), []element.Query{"never-written"})
	if !errors.Is(err, faults.ErrStorageCorrupted) {
		t.Fatalf("expected ErrStorageCorrupted, got %v", err)
	}
}

func TestReadQueryIsPureDecomposition(t *testing.T) {
	store := newStore(t)
	selector, remainder, err := store.ReadQuery("youtube/frames/classify")
	if err != nil {
		t.Fatalf("ReadQuery: %v", err)
	}
	if selector != "youtube" || remainder != "frames/classify" {
		t.Fatalf("unexpected decomposition: %q %q", selector, remainder)
	}
}

func TestMetaRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	meta := storage.Meta{
		EType:  "image/frames",
		Config: map[string]any{"elements_in": []any{"youtube"}},
		Stage:  storage.StageInfo{Name: "frames", Module: "analyser"},
	}
	if err := store.WriteMeta(ctx, "youtube/frames", meta); err != nil {
		t.Fatalf("WriteMeta: %v", err)
	}

	got, ok, err := store.ReadMeta(ctx, "youtube/frames")
	if err != nil {
		t.Fatalf("ReadMeta: %v", err)
	}
	if !ok {
		t.Fatal("expected meta record to exist")
	}
	if got.EType != meta.EType || got.Stage != meta.Stage {
		t.Fatalf("unexpected meta: %+v", got)
	}

	_, ok, err = store.ReadMeta(ctx, "youtube/other")
	if err != nil {
		t.Fatalf("ReadMeta absent: %v", err)
	}
	if ok {
		t.Fatal("expected no meta under unwritten query")
	}
}

func TestReadElementsPicksUpMetaEType(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	payload := writePayload(t, t.TempDir(), "f1.png", "png")
	el := element.NewElement("youtube/frames", "", payload)
	if ok := store.WriteElement(ctx, "youtube/frames", el); !ok {
		t.Fatal("write failed")
	}
	meta := storage.Meta{EType: "image/frames", Stage: storage.StageInfo{Name: "frames", Module: "analyser"}}
	if err := store.WriteMeta(ctx, "youtube/frames", meta); err != nil {
		t.Fatalf("WriteMeta: %v", err)
	}

	elements, err := store.ReadElements(ctx, []element.Query{"youtube/frames"})
	if err != nil {
		t.Fatalf("ReadElements: %v", err)
	}
	if elements[0].EType != "image/frames" {
		t.Fatalf("expected etype from meta, got %q", elements[0].EType)
	}
}

func TestDerivedOutputsNestInsideElements(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	payload := writePayload(t, t.TempDir(), "clip.mp4", "frames")
	el := element.NewElement("youtube", "media/file", payload)
	if ok := store.WriteElement(ctx, "youtube", el); !ok {
		t.Fatal("retrieve write failed")
	}

	derivedPayload := writePayload(t, t.TempDir(), "f1.png", "png")
	derived := el
	derived.Paths = []string{derivedPayload}
	if ok := store.WriteElement(ctx, "youtube/frames", derived); !ok {
		t.Fatal("derived write failed")
	}
	if err := store.WriteMeta(ctx, "youtube/frames", storage.Meta{EType: "image/frames"}); err != nil {
		t.Fatalf("WriteMeta: %v", err)
	}

	// The derived payload lives inside the element's own directory.
	nested := filepath.Join(store.BaseDir(), "youtube", el.ID, "frames", "f1.png")
	if _, err := os.Stat(nested); err != nil {
		t.Fatalf("expected nested derived payload at %s: %v", nested, err)
	}

	// The selector query still sees exactly one element with its own payload.
	parents, err := store.ReadElements(ctx, []element.Query{"youtube"})
	if err != nil {
		t.Fatalf("ReadElements parent: %v", err)
	}
	if len(parents) != 1 || filepath.Base(parents[0].Paths[0]) != "clip.mp4" {
		t.Fatalf("derived output leaked into the selector listing: %+v", parents)
	}

	derivedElements, err := store.ReadElements(ctx, []element.Query{"youtube/frames"})
	if err != nil {
		t.Fatalf("ReadElements derived: %v", err)
	}
	if len(derivedElements) != 1 || filepath.Base(derivedElements[0].Paths[0]) != "f1.png" {
		t.Fatalf("unexpected derived elements: %+v", derivedElements)
	}
}

func TestDerivedQuerySkipsElementsWithoutOutput(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for _, name := range []string{"a.mp4", "b.mp4"} {
		payload := writePayload(t, t.TempDir(), name, "bytes")
		el := element.NewElement("youtube", "media/file", payload)
		if ok := store.WriteElement(ctx, "youtube", el); !ok {
			t.Fatalf("write %s failed", name)
		}
	}

	// Derive output for only one of the two elements.
	parents, err := store.ReadElements(ctx, []element.Query{"youtube"})
	if err != nil {
		t.Fatalf("ReadElements: %v", err)
	}
	derivedPayload := writePayload(t, t.TempDir(), "out.png", "png")
	derived := parents[0]
	derived.Paths = []string{derivedPayload}
	if ok := store.WriteElement(ctx, "youtube/frames", derived); !ok {
		t.Fatal("derived write failed")
	}

	derivedElements, err := store.ReadElements(ctx, []element.Query{"youtube/frames"})
	if err != nil {
		t.Fatalf("ReadElements derived: %v", err)
	}
	if len(derivedElements) != 1 || derivedElements[0].ID != parents[0].ID {
		t.Fatalf("expected only the analysed element, got %+v", derivedElements)
	}
}

func TestDeleteLocalOnWriteRemovesStagedCopy(t *testing.T) {
	store := newStore(t, storage.WithDeleteLocalOnWrite(true))
	ctx := context.Background()

	payload := writePayload(t, t.TempDir(), "clip.mp4", "frames")
	el := element.NewElement("youtube", "media/file", payload)

	if ok := store.WriteElement(ctx, "youtube", el); !ok {
		t.Fatal("write failed")
	}
	if _, err := os.Stat(payload); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected staged copy removed, stat err: %v", err)
	}

	// Disabled flag keeps the staged copy in place.
	store.SetDeleteLocalOnWrite(false)
	payload2 := writePayload(t, t.TempDir(), "clip2.mp4", "frames")
	el2 := element.NewElement("youtube", "media/file", payload2)
	if ok := store.WriteElement(ctx, "youtube", el2); !ok {
		t.Fatal("write failed")
	}
	if _, err := os.Stat(payload2); err != nil {
		t.Fatalf("expected staged copy retained: %v", err)
	}
}

func TestAppendLogs(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.AppendLogs(ctx, "youtube/frames", []string{"phase started", "phase completed"}); err != nil {
		t.Fatalf("AppendLogs: %v", err)
	}
	if err := store.AppendLogs(ctx, "youtube/frames", []string{"second flush"}); err != nil {
		t.Fatalf("AppendLogs second flush: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(store.BaseDir(), "youtube", "frames.logs.txt"))
	if err != nil {
		t.Fatalf("read logs: %v", err)
	}
	want := "phase started\nphase completed\nsecond flush\n"
	if string(data) != want {
		t.Fatalf("unexpected logs content:\n%q\nwant:\n%q", data, want)
	}
}
