package report

import (
	"testing"
	"time"

	"github.com/dryscan/dryscan/internal/duplicate"
)

func sampleGroups() ([]duplicate.Group, duplicate.Score) {
	g := duplicate.Group{
		ID:              "function|add(arity:2)|sum(arity:2)",
		Similarity:      1.0,
		ExclusionString: "function|add(arity:2)|sum(arity:2)",
		Left:            duplicate.Side{Name: "add", FilePath: "A.java", StartLine: 1, EndLine: 1},
		Right:           duplicate.Side{Name: "sum", FilePath: "B.java", StartLine: 1, EndLine: 1},
	}
	return []duplicate.Group{g}, duplicate.Score{Score: 10, Grade: "Good", TotalLines: 10, DuplicateGroups: 1}
}

func TestWriteAndLoadLatestRoundTrips(t *testing.T) {
	dir := t.TempDir()
	groups, score := sampleGroups()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	artifact := Build(groups, score, 0.85, at)
	path, err := Write(dir, artifact, at)
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("expected a non-empty path")
	}

	loaded, loadedPath, err := LoadLatest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if loadedPath != path {
		t.Fatalf("expected loaded path %q, got %q", path, loadedPath)
	}
	if len(loaded.Duplicates) != 1 {
		t.Fatalf("expected 1 duplicate, got %d", len(loaded.Duplicates))
	}
	if loaded.Duplicates[0].ShortID == "" {
		t.Fatal("expected a non-empty shortId")
	}
}

func TestLoadLatestSelectsNewestFile(t *testing.T) {
	dir := t.TempDir()
	groups, score := sampleGroups()

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	if _, err := Write(dir, Build(groups, score, 0.85, older), older); err != nil {
		t.Fatal(err)
	}
	if _, err := Write(dir, Build(nil, duplicate.Score{Grade: "Excellent"}, 0.85, newer), newer); err != nil {
		t.Fatal(err)
	}

	loaded, _, err := LoadLatest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Duplicates) != 0 {
		t.Fatalf("expected the newer (empty) report to win, got %d duplicates", len(loaded.Duplicates))
	}
}

func TestLoadLatestMissingDirErrors(t *testing.T) {
	_, _, err := LoadLatest("/nonexistent/dry/reports")
	if err == nil {
		t.Fatal("expected an error for a missing reports directory")
	}
}

func TestApplyExclusionAddsOnceThenIdempotent(t *testing.T) {
	dir := t.TempDir()
	groups, score := sampleGroups()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	artifact := Build(groups, score, 0.85, at)
	if _, err := Write(dir, artifact, at); err != nil {
		t.Fatal(err)
	}
	shortID := artifact.Duplicates[0].ShortID

	updated, exclusionString, added, err := ApplyExclusion(dir, shortID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !added || len(updated) != 1 || exclusionString != artifact.Duplicates[0].ExclusionString {
		t.Fatalf("expected a fresh add, got updated=%v added=%v exclusionString=%q", updated, added, exclusionString)
	}

	updated2, _, added2, err := ApplyExclusion(dir, shortID, updated)
	if err != nil {
		t.Fatal(err)
	}
	if added2 {
		t.Fatal("expected the second application to report added=false")
	}
	if len(updated2) != 1 {
		t.Fatalf("expected the pair list to stay at length 1, got %v", updated2)
	}
}

func TestApplyExclusionUnknownShortIDErrors(t *testing.T) {
	dir := t.TempDir()
	groups, score := sampleGroups()
	at := time.Now()
	if _, err := Write(dir, Build(groups, score, 0.85, at), at); err != nil {
		t.Fatal(err)
	}

	_, _, _, err := ApplyExclusion(dir, "does-not-exist", nil)
	if err == nil {
		t.Fatal("expected ShortIDUnknownError")
	}
}
