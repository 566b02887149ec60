// Package exclusion implements the exclusion service: purging units and
// file records that fall under excludedPaths after an index refresh, and
// reconciling the configured excludedPairs against the pairs the current
// index can actually produce (spec.md §4.8), in the same diff-the-live-set
// idiom the teacher's gitignore pattern reconciliation uses.
package exclusion

import (
	"github.com/dryscan/dryscan/internal/ignore"
	"github.com/dryscan/dryscan/internal/pairing"
	"github.com/dryscan/dryscan/internal/unit"
)

// unitStore is the subset of *store.Store the exclusion service needs,
// narrowed so it can be exercised with a fake in tests.
type unitStore interface {
	ListUnits() ([]*unit.Unit, error)
	ListFileRecords() ([]unit.FileRecord, error)
	DeleteUnitsByFilePaths(paths []string) error
	DeleteFileRecords(paths []string) error
}

// CleanupExcludedFiles removes every unit and FileRecord whose path
// matches any excludedPaths glob and returns the removed paths, so the
// caller can invalidate anything keyed by them (e.g. the duplication
// cache).
func CleanupExcludedFiles(store unitStore, excludedPaths []string) ([]string, error) {
	if len(excludedPaths) == 0 {
		return nil, nil
	}

	records, err := store.ListFileRecords()
	if err != nil {
		return nil, err
	}

	matcher := ignore.New()
	for _, p := range excludedPaths {
		matcher.AddPattern(p)
	}

	var stale []string
	for _, r := range records {
		if matcher.Ignores(r.FilePath, false) {
			stale = append(stale, r.FilePath)
		}
	}
	if len(stale) == 0 {
		return nil, nil
	}

	if err := store.DeleteUnitsByFilePaths(stale); err != nil {
		return nil, err
	}
	if err := store.DeleteFileRecords(stale); err != nil {
		return nil, err
	}
	return stale, nil
}

// CleanResult is the outcome of CleanExclusions.
type CleanResult struct {
	Kept    []string
	Removed int
}

// CleanExclusions enumerates every pair key the current index could
// produce (all same-kind unit pairs, per unit) and partitions
// excludedPairs into entries that still match at least one live pair
// (kept) and ones that don't (removed), per spec.md §4.8.
func CleanExclusions(store unitStore, excludedPairs []string) (CleanResult, error) {
	units, err := store.ListUnits()
	if err != nil {
		return CleanResult{}, err
	}

	livePairKeys := livePairs(units)

	kept := make([]string, 0, len(excludedPairs))
	removed := 0
	for _, pattern := range excludedPairs {
		if matchesAnyLivePair(pattern, livePairKeys) {
			kept = append(kept, pattern)
		} else {
			removed++
		}
	}
	return CleanResult{Kept: kept, Removed: removed}, nil
}

func livePairs(units []*unit.Unit) []string {
	byKind := map[unit.Kind][]*unit.Unit{}
	for _, u := range units {
		byKind[u.Kind] = append(byKind[u.Kind], u)
	}

	var keys []string
	for kind, list := range byKind {
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				keys = append(keys, pairing.Key(kind, pairing.Label(list[i]), pairing.Label(list[j])))
			}
		}
	}
	return keys
}

func matchesAnyLivePair(pattern string, liveKeys []string) bool {
	for _, key := range liveKeys {
		if pairing.Matches(key, pattern) {
			return true
		}
	}
	return false
}
