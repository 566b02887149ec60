package duplicate

import (
	"sort"

	"github.com/dryscan/dryscan/internal/dryconfig"
	"github.com/dryscan/dryscan/internal/dupcache"
	"github.com/dryscan/dryscan/internal/pairing"
	"github.com/dryscan/dryscan/internal/unit"
)

// Engine finds duplicate groups across a set of index units, consulting
// and populating a duplication cache across runs.
type Engine struct {
	cache *dupcache.Cache
}

// New constructs an Engine backed by cache. cache may be nil, in which
// case every pair is computed fresh (acceptable for one-off scans).
func New(cache *dupcache.Cache) *Engine {
	return &Engine{cache: cache}
}

// FindDuplicates compares same-kind pairs in all (the full flat unit
// list, e.g. from store.ListUnits, with Children populated so the engine
// can climb to enclosing CLASS/FUNCTION ancestors): every pair while a
// kind has at most annCutoff units, only the shortlisted pairs of
// pairIndices above that. It applies the kind
// thresholds and excludedPairs from cfg, and returns the emitted groups
// sorted by descending similarity plus the aggregate duplication score.
func (e *Engine) FindDuplicates(all []*unit.Unit, cfg dryconfig.Config) ([]Group, Score) {
	idx := indexByID(all)
	thresholds := NewThresholds(cfg.Threshold)

	byKind := map[unit.Kind][]*unit.Unit{}
	for _, u := range all {
		byKind[u.Kind] = append(byKind[u.Kind], u)
	}

	var groups []Group
	for kind, list := range byKind {
		threshold := thresholds.For(kind)
		for _, pair := range pairIndices(list) {
			a, b := list[pair[0]], list[pair[1]]
			if kind == unit.Block && (contains(a, b) || contains(b, a)) {
				continue
			}

			sim, ok := e.lookupCache(a, b)
			if !ok {
				sim = weightedSimilarity(idx, a, b)
				e.populateCache(a, b, sim)
			}

			if sim < threshold {
				continue
			}
			if excluded(a, b, cfg.ExcludedPairs) {
				continue
			}
			groups = append(groups, buildGroup(a, b, sim))
		}
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Similarity > groups[j].Similarity })

	return groups, computeScore(all, groups)
}

func (e *Engine) lookupCache(a, b *unit.Unit) (float64, bool) {
	if e.cache == nil {
		return 0, false
	}
	return e.cache.Get(a.ID, b.ID, a.FilePath, b.FilePath)
}

func (e *Engine) populateCache(a, b *unit.Unit, sim float64) {
	if e.cache == nil {
		return
	}
	e.cache.Put(a.ID, b.ID, a.FilePath, b.FilePath, sim)
}

func excluded(a, b *unit.Unit, excludedPairs []string) bool {
	key := pairing.Key(a.Kind, pairing.Label(a), pairing.Label(b))
	for _, pattern := range excludedPairs {
		if pairing.Matches(key, pattern) {
			return true
		}
	}
	return false
}

func buildGroup(a, b *unit.Unit, sim float64) Group {
	key := pairing.Key(a.Kind, pairing.Label(a), pairing.Label(b))
	return Group{
		ID:              a.ID + "::" + b.ID,
		Similarity:      sim,
		ExclusionString: key,
		Left:            sideOf(a),
		Right:           sideOf(b),
	}
}

func computeScore(all []*unit.Unit, groups []Group) Score {
	totalLines := 0
	for _, u := range all {
		totalLines += u.Lines()
	}

	if totalLines == 0 || len(groups) == 0 {
		return Score{Score: 0, Grade: Grade(0), TotalLines: totalLines, DuplicateGroups: len(groups)}
	}

	var weighted float64
	for _, g := range groups {
		weighted += g.Similarity * float64(g.Left.lines()+g.Right.lines()) / 2
	}

	score := 100 * weighted / float64(totalLines)
	return Score{
		Score:           score,
		Grade:           Grade(score),
		TotalLines:      totalLines,
		DuplicateLines:  weighted,
		DuplicateGroups: len(groups),
	}
}

func (s Side) lines() int {
	return s.EndLine - s.StartLine + 1
}
