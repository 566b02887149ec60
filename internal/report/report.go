// Package report bundles duplicate-engine output into persisted report
// artifacts, grounded on the teacher's IndexInfo/IndexCheckpoint
// JSON-snapshot style in internal/store/types.go, generalized from index
// statistics to a duplication report.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dryscan/dryscan/internal/dryerrors"
	"github.com/dryscan/dryscan/internal/duplicate"
)

// FilePrefix is the filename prefix every report artifact is written
// under inside the store's reports directory.
const FilePrefix = "dupes-"

// Duplicate is one reported group, carrying the shortId assigned at
// report time alongside the engine's Group fields.
type Duplicate struct {
	ID              string         `json:"id"`
	ShortID         string         `json:"shortId"`
	Similarity      float64        `json:"similarity"`
	ExclusionString string         `json:"exclusionString"`
	Left            duplicate.Side `json:"left"`
	Right           duplicate.Side `json:"right"`
}

// Artifact is the persisted report document (spec.md §4.9).
type Artifact struct {
	Version     int             `json:"version"`
	GeneratedAt string          `json:"generatedAt"`
	Threshold   float64         `json:"threshold"`
	Grade       string          `json:"grade"`
	Score       duplicate.Score `json:"score"`
	Duplicates  []Duplicate     `json:"duplicates"`
}

const artifactVersion = 1

// Build stamps a fresh Artifact from a duplicate-engine scan. Each group
// is assigned a new globally unique shortId.
func Build(groups []duplicate.Group, score duplicate.Score, threshold float64, generatedAt time.Time) Artifact {
	dups := make([]Duplicate, 0, len(groups))
	for _, g := range groups {
		dups = append(dups, Duplicate{
			ID:              g.ID,
			ShortID:         uuid.NewString(),
			Similarity:      g.Similarity,
			ExclusionString: g.ExclusionString,
			Left:            g.Left,
			Right:           g.Right,
		})
	}
	return Artifact{
		Version:     artifactVersion,
		GeneratedAt: generatedAt.UTC().Format(time.RFC3339),
		Threshold:   threshold,
		Grade:       score.Grade,
		Score:       score,
		Duplicates:  dups,
	}
}

// safeTimestamp replaces characters unsafe in filenames ("." and ":")
// with "-", per spec.md §4.9.
func safeTimestamp(t time.Time) string {
	ts := t.UTC().Format(time.RFC3339Nano)
	ts = strings.ReplaceAll(ts, ":", "-")
	ts = strings.ReplaceAll(ts, ".", "-")
	return ts
}

// Write persists artifact to dir/dupes-{safeTimestamp}.json, atomically.
func Write(dir string, artifact Artifact, at time.Time) (string, error) {
	name := FilePrefix + safeTimestamp(at) + ".json"
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", err
	}
	return path, nil
}

// LoadLatest reads the report artifact in dir with the greatest mtime.
func LoadLatest(dir string) (Artifact, string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Artifact{}, "", &dryerrors.ReportMissingError{Dir: dir}
	}

	var latestPath string
	var latestMod time.Time
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), FilePrefix) || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if latestPath == "" || info.ModTime().After(latestMod) {
			latestPath = filepath.Join(dir, e.Name())
			latestMod = info.ModTime()
		}
	}
	if latestPath == "" {
		return Artifact{}, "", &dryerrors.ReportMissingError{Dir: dir}
	}

	data, err := os.ReadFile(latestPath)
	if err != nil {
		return Artifact{}, "", &dryerrors.ReportMissingError{Dir: dir}
	}
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return Artifact{}, "", &dryerrors.ReportMissingError{Dir: dir}
	}
	return artifact, latestPath, nil
}

// FindByShortID returns the duplicate in artifact with the given shortId.
func FindByShortID(artifact Artifact, shortID string) (Duplicate, bool) {
	for _, d := range artifact.Duplicates {
		if d.ShortID == shortID {
			return d, true
		}
	}
	return Duplicate{}, false
}

// appendIfAbsent returns excludedPairs with the new entry appended if
// absent, leaving the original order of existing entries untouched.
func appendIfAbsent(excludedPairs []string, exclusionString string) ([]string, bool) {
	for _, p := range excludedPairs {
		if p == exclusionString {
			return excludedPairs, false
		}
	}
	out := make([]string, len(excludedPairs), len(excludedPairs)+1)
	copy(out, excludedPairs)
	out = append(out, exclusionString)
	return out, true
}

// ApplyExclusion reads the latest report in dir, finds the group with
// shortID, appends its exclusionString to excludedPairs if not already
// present, and returns the (possibly unchanged) pair list, the
// exclusionString applied, and whether it was newly added.
func ApplyExclusion(dir, shortID string, excludedPairs []string) (updated []string, exclusionString string, added bool, err error) {
	artifact, _, err := LoadLatest(dir)
	if err != nil {
		return nil, "", false, err
	}
	dup, ok := FindByShortID(artifact, shortID)
	if !ok {
		return nil, "", false, &dryerrors.ShortIDUnknownError{ShortID: shortID}
	}
	updated, added = appendIfAbsent(excludedPairs, dup.ExclusionString)
	return updated, dup.ExclusionString, added, nil
}
