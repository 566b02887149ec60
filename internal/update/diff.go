package update

import (
	"path/filepath"
	"sort"

	"github.com/dryscan/dryscan/internal/scan"
	"github.com/dryscan/dryscan/internal/unit"
)

// classification is the outcome of diffing the current file listing
// against the tracked FileRecords (spec.md §4.5 steps 1-4).
type classification struct {
	added     []string
	changed   []string
	deleted   []string
	unchanged int
	mtimeOf   map[string]int64
}

func (c classification) dirty() bool {
	return len(c.added) > 0 || len(c.changed) > 0 || len(c.deleted) > 0
}

// classify compares the current scan against tracked FileRecords. A file
// with an unchanged mtime is assumed unchanged without touching its
// content; only a changed mtime triggers a checksum comparison.
func classify(repoRoot string, files []scan.File, records []unit.FileRecord) (classification, error) {
	byPath := make(map[string]unit.FileRecord, len(records))
	for _, r := range records {
		byPath[r.FilePath] = r
	}

	c := classification{mtimeOf: make(map[string]int64, len(files))}
	seen := make(map[string]bool, len(files))

	for _, f := range files {
		seen[f.Path] = true
		c.mtimeOf[f.Path] = f.MTime

		rec, tracked := byPath[f.Path]
		switch {
		case !tracked:
			c.added = append(c.added, f.Path)
		case rec.MTime == f.MTime:
			c.unchanged++
		default:
			checksum, err := scan.Checksum(filepath.Join(repoRoot, f.Path))
			if err != nil {
				return classification{}, err
			}
			if checksum != rec.Checksum {
				c.changed = append(c.changed, f.Path)
			} else {
				c.unchanged++
			}
		}
	}

	for path := range byPath {
		if !seen[path] {
			c.deleted = append(c.deleted, path)
		}
	}

	sort.Strings(c.added)
	sort.Strings(c.changed)
	sort.Strings(c.deleted)
	return c, nil
}
