package duplicate

import (
	"math"

	"github.com/dryscan/dryscan/internal/unit"
)

// cosine computes the cosine similarity of two equal-length vectors. It
// does not assume normalization.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// selfSimilarity is the cosine of two units' own embeddings, falling back
// to the best cross-product of their children's self-similarity when
// either side lacks an embedding (spec.md §4.7). A side with no children
// contributes 0.
func selfSimilarity(a, b *unit.Unit) float64 {
	if a.HasEmbedding() && b.HasEmbedding() {
		return cosine(a.Embedding, b.Embedding)
	}
	if len(a.Children) == 0 || len(b.Children) == 0 {
		return 0
	}
	best := 0.0
	for _, ca := range a.Children {
		for _, cb := range b.Children {
			if s := selfSimilarity(ca, cb); s > best {
				best = s
			}
		}
	}
	return best
}

// byID and parentOf let the weighted composition climb to a unit's
// enclosing CLASS/FUNCTION ancestors without re-querying the store.
type byID map[string]*unit.Unit

func indexByID(units []*unit.Unit) byID {
	m := make(byID, len(units))
	var collect func(*unit.Unit)
	collect = func(u *unit.Unit) {
		m[u.ID] = u
		for _, c := range u.Children {
			collect(c)
		}
	}
	for _, u := range units {
		collect(u)
	}
	return m
}

func (m byID) parent(u *unit.Unit) *unit.Unit {
	if u.ParentID == "" {
		return nil
	}
	return m[u.ParentID]
}

// nearestAncestor walks up parent links until it finds one of the given
// kind, or returns nil.
func (m byID) nearestAncestor(u *unit.Unit, kind unit.Kind) *unit.Unit {
	cur := m.parent(u)
	for cur != nil {
		if cur.Kind == kind {
			return cur
		}
		cur = m.parent(cur)
	}
	return nil
}

// weightedSimilarity computes the per-kind weighted similarity of a and b
// (already confirmed same kind), blending the self term with present
// parent-context terms and re-normalizing by the sum of active weights,
// per spec.md §4.7.
func weightedSimilarity(idx byID, a, b *unit.Unit) float64 {
	self := selfSimilarity(a, b)

	switch a.Kind {
	case unit.Class:
		return self

	case unit.Function:
		classA := idx.nearestAncestor(a, unit.Class)
		classB := idx.nearestAncestor(b, unit.Class)
		if classA == nil || classB == nil {
			return self
		}
		parentSim := selfSimilarity(classA, classB)
		return 0.8*self + 0.2*parentSim

	case unit.Block:
		fnA := idx.nearestAncestor(a, unit.Function)
		fnB := idx.nearestAncestor(b, unit.Function)
		classA := idx.nearestAncestor(a, unit.Class)
		classB := idx.nearestAncestor(b, unit.Class)

		weight, total := 0.7*self, 0.7
		if fnA != nil && fnB != nil {
			weight += 0.2 * selfSimilarity(fnA, fnB)
			total += 0.2
		}
		if classA != nil && classB != nil {
			weight += 0.1 * selfSimilarity(classA, classB)
			total += 0.1
		}
		if total == 0 {
			return 0
		}
		return weight / total

	default:
		return self
	}
}

// contains reports whether outer's line range fully contains inner's,
// used to prune lexically nested BLOCK-BLOCK pairs within the same file.
func contains(outer, inner *unit.Unit) bool {
	return outer.FilePath == inner.FilePath &&
		outer.StartLine <= inner.StartLine && outer.EndLine >= inner.EndLine &&
		outer.ID != inner.ID
}
