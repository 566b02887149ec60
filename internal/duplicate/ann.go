package duplicate

import (
	"github.com/coder/hnsw"

	"github.com/dryscan/dryscan/internal/unit"
)

// annCutoff is the same-kind group size above which the engine shortlists
// candidates through an HNSW graph instead of comparing every pair. Above
// it, a pair is scored only when one unit is among the other's
// annNeighbors nearest embeddings or lacks an embedding; a pair outside
// every shortlist is never scored, even if it would meet the threshold.
const annCutoff = 500

const annNeighbors = 32

// annCandidates builds a one-shot HNSW graph over every embedded unit in
// units and returns, per unit id, the ids of its annNeighbors nearest
// neighbors by cosine distance.
func annCandidates(units []*unit.Unit, k int) map[string]map[string]bool {
	graph := hnsw.NewGraph[string]()
	graph.Distance = hnsw.CosineDistance

	for _, u := range units {
		if !u.HasEmbedding() {
			continue
		}
		graph.Add(hnsw.MakeNode(u.ID, u.Embedding))
	}

	result := make(map[string]map[string]bool, len(units))
	for _, u := range units {
		if !u.HasEmbedding() {
			continue
		}
		found := graph.Search(u.Embedding, k+1)
		set := make(map[string]bool, len(found))
		for _, n := range found {
			if n.Key == u.ID {
				continue
			}
			set[n.Key] = true
		}
		result[u.ID] = set
	}
	return result
}

// pairIndices returns the (i,j) index pairs within list that the engine
// should score. Below annCutoff every pair is scored directly. Above it,
// embedded units are shortlisted through annCandidates; units still
// lacking an embedding (pending the child-similarity fallback) are always
// compared against the full list since they cannot be placed in the
// vector graph.
func pairIndices(list []*unit.Unit) [][2]int {
	n := len(list)
	if n <= annCutoff {
		pairs := make([][2]int, 0, n*(n-1)/2)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, [2]int{i, j})
			}
		}
		return pairs
	}

	indexByID := make(map[string]int, n)
	for i, u := range list {
		indexByID[u.ID] = i
	}
	neighbors := annCandidates(list, annNeighbors)

	seen := make(map[[2]int]bool)
	var pairs [][2]int
	add := func(i, j int) {
		if i == j {
			return
		}
		if i > j {
			i, j = j, i
		}
		key := [2]int{i, j}
		if seen[key] {
			return
		}
		seen[key] = true
		pairs = append(pairs, key)
	}

	for i, u := range list {
		if !u.HasEmbedding() {
			for j := range list {
				add(i, j)
			}
			continue
		}
		for id := range neighbors[u.ID] {
			add(i, indexByID[id])
		}
	}
	return pairs
}
