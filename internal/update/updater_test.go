package update

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dryscan/dryscan/internal/dryconfig"
	"github.com/dryscan/dryscan/internal/embedclient"
	"github.com/dryscan/dryscan/internal/extract"
	"github.com/dryscan/dryscan/internal/ignore"
	"github.com/dryscan/dryscan/internal/scan"
	"github.com/dryscan/dryscan/internal/unit"
)

type fakeStore struct {
	units   map[string]*unit.Unit
	records map[string]unit.FileRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{units: map[string]*unit.Unit{}, records: map[string]unit.FileRecord{}}
}

func (f *fakeStore) ListFileRecords() ([]unit.FileRecord, error) {
	out := make([]unit.FileRecord, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) ListUnits() ([]*unit.Unit, error) {
	out := make([]*unit.Unit, 0, len(f.units))
	for _, u := range f.units {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeStore) DeleteUnitsByFilePaths(paths []string) error {
	skip := make(map[string]bool, len(paths))
	for _, p := range paths {
		skip[p] = true
	}
	for id, u := range f.units {
		if skip[u.FilePath] {
			delete(f.units, id)
		}
	}
	return nil
}

func (f *fakeStore) SaveUnits(units []*unit.Unit) error {
	for _, u := range units {
		f.units[u.ID] = u
	}
	return nil
}

func (f *fakeStore) UpdateUnitEmbedding(id string, embedding []float32) error {
	if u, ok := f.units[id]; ok {
		u.Embedding = embedding
	}
	return nil
}

func (f *fakeStore) SaveFileRecords(records []unit.FileRecord) error {
	for _, r := range records {
		f.records[r.FilePath] = r
	}
	return nil
}

func (f *fakeStore) DeleteFileRecords(paths []string) error {
	for _, p := range paths {
		delete(f.records, p)
	}
	return nil
}

const calcV1 = `public class Calc {
    public int add(int a, int b) {
        int sum = a + b;
        return sum;
    }
}
`

const calcV2 = `public class Calc {
    public int add(int a, int b) {
        int sum = a + b;
        return sum;
    }

    public int multiply(int a, int b) {
        int product = a * b;
        return product;
    }
}
`

func newDeps(t *testing.T, fs *fakeStore) Deps {
	t.Helper()
	matcher := ignore.New()
	return Deps{
		Store:      fs,
		Scanner:    scan.New([]string{".java"}),
		Matcher:    matcher,
		Extractors: extract.NewRegistry(extract.NewJavaExtractor()),
		Embedder:   &embedclient.Stub{ContextLength: 4096, Default: []float32{1, 0}},
	}
}

func writeFile(t *testing.T, dir, name, content string, mtime int64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if mtime != 0 {
		mt := time.UnixMilli(mtime)
		if err := os.Chtimes(path, mt, mt); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestIncrementalChangeDetectsModifiedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Calc.java", calcV1, 0)

	fs := newFakeStore()
	deps := newDeps(t, fs)

	initResult, err := Init(context.Background(), dir, dryconfig.Default(), deps)
	if err != nil {
		t.Fatal(err)
	}
	if initResult.Added != 1 {
		t.Fatalf("expected 1 added file on init, got %+v", initResult)
	}
	if len(fs.units) == 0 {
		t.Fatal("expected units to be saved on init")
	}

	// Bump mtime forward so the diff doesn't rely on filesystem timestamp
	// resolution, then rewrite with a new method.
	bumped := fs.records["Calc.java"].MTime + 5000
	writeFile(t, dir, "Calc.java", calcV2, bumped)

	result, err := Update(context.Background(), dir, dryconfig.Default(), deps)
	if err != nil {
		t.Fatal(err)
	}
	if result != (Result{Added: 0, Changed: 1, Deleted: 0, Unchanged: 0}) {
		t.Fatalf("expected {Added:0 Changed:1 Deleted:0 Unchanged:0}, got %+v", result)
	}

	rec, ok := fs.records["Calc.java"]
	if !ok {
		t.Fatal("expected a FileRecord for Calc.java")
	}

	var names []string
	for _, u := range fs.units {
		if u.Kind == "function" {
			names = append(names, u.Name)
		}
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 function units after the change, got %v", names)
	}
	_ = rec
}

func TestSecondUpdateWithNoChangesIsAllUnchanged(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Calc.java", calcV1, 0)

	fs := newFakeStore()
	deps := newDeps(t, fs)

	if _, err := Init(context.Background(), dir, dryconfig.Default(), deps); err != nil {
		t.Fatal(err)
	}

	result, err := Update(context.Background(), dir, dryconfig.Default(), deps)
	if err != nil {
		t.Fatal(err)
	}
	if result.Added != 0 || result.Changed != 0 || result.Deleted != 0 || result.Unchanged != 1 {
		t.Fatalf("expected a fully unchanged second pass, got %+v", result)
	}
}

func TestUpdateCleansUpNewlyExcludedPathsWithNoFileChanges(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "src", "test"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, filepath.Join("src", "test", "Calc.java"), calcV1, 0)

	fs := newFakeStore()
	deps := newDeps(t, fs)

	initCfg := dryconfig.Default()
	initCfg.ExcludedPaths = nil
	if _, err := Init(context.Background(), dir, initCfg, deps); err != nil {
		t.Fatal(err)
	}
	if len(fs.units) == 0 || len(fs.records) == 0 {
		t.Fatal("expected units and a FileRecord to exist after init")
	}

	// No filesystem change, but excludedPaths now covers the file's
	// directory: Update alone (not Init) must still purge it.
	cfg := dryconfig.Default()
	cfg.ExcludedPaths = []string{"**/test/**"}

	result, err := Update(context.Background(), dir, cfg, deps)
	if err != nil {
		t.Fatal(err)
	}
	if result.Unchanged != 1 {
		t.Fatalf("expected the unchanged-file fast path, got %+v", result)
	}
	if len(fs.units) != 0 {
		t.Fatalf("expected units under the newly-excluded path to be purged, got %d", len(fs.units))
	}
	if len(fs.records) != 0 {
		t.Fatalf("expected the FileRecord under the newly-excluded path to be purged, got %d", len(fs.records))
	}
}

func TestDeletedFileRemovesUnitsAndRecord(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Calc.java", calcV1, 0)

	fs := newFakeStore()
	deps := newDeps(t, fs)
	if _, err := Init(context.Background(), dir, dryconfig.Default(), deps); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(filepath.Join(dir, "Calc.java")); err != nil {
		t.Fatal(err)
	}

	result, err := Update(context.Background(), dir, dryconfig.Default(), deps)
	if err != nil {
		t.Fatal(err)
	}
	if result.Deleted != 1 {
		t.Fatalf("expected 1 deleted file, got %+v", result)
	}
	if len(fs.units) != 0 {
		t.Fatalf("expected all units for the deleted file to be gone, got %d", len(fs.units))
	}
	if len(fs.records) != 0 {
		t.Fatalf("expected the FileRecord to be gone, got %d", len(fs.records))
	}
}
