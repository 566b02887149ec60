// Package dupcache implements the process-scoped duplication cache:
// pair similarities keyed by the unordered unit-id pair, guarded by the
// set of files that were indexed when the entry was populated so a change
// to either file invalidates it precisely (spec.md §3/§4.7).
package dupcache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultSize = 100_000

type pairKey struct {
	left, right string
}

func newPairKey(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{left: a, right: b}
}

type entry struct {
	similarity float64
	leftPath   string
	rightPath  string
}

// Cache is the duplication cache: an explicit collaborator (per spec.md
// §9 — not a package-level singleton) owned by the application root and
// passed into the duplicate engine.
type Cache struct {
	mu    sync.Mutex
	cache *lru.Cache[pairKey, entry]
}

// New constructs an empty cache. It starts empty and fills on the first
// complete duplicate scan, per spec.md §3's lifecycle rule.
func New() *Cache {
	c, _ := lru.New[pairKey, entry](defaultSize)
	return &Cache{cache: c}
}

// Get returns the cached similarity for (leftID, rightID) if present and
// still valid: the cache only returns a hit when the recorded file paths
// match exactly what's passed in, which is how the caller proves neither
// file has changed since the entry was written.
func (c *Cache) Get(leftID, rightID, leftPath, rightPath string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.cache.Get(newPairKey(leftID, rightID))
	if !ok {
		return 0, false
	}
	if !membershipMatches(e, leftPath, rightPath) {
		return 0, false
	}
	return e.similarity, true
}

func membershipMatches(e entry, leftPath, rightPath string) bool {
	return (e.leftPath == leftPath && e.rightPath == rightPath) ||
		(e.leftPath == rightPath && e.rightPath == leftPath)
}

// Put records the similarity for (leftID, rightID), attributing it to the
// two units' current file paths.
func (c *Cache) Put(leftID, rightID, leftPath, rightPath string, similarity float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(newPairKey(leftID, rightID), entry{similarity: similarity, leftPath: leftPath, rightPath: rightPath})
}

// InvalidatePaths drops every cached entry attributing either side to one
// of the given file paths, called by the updater for changed/deleted
// files.
func (c *Cache) InvalidatePaths(paths []string) {
	if len(paths) == 0 {
		return
	}
	stale := make(map[string]bool, len(paths))
	for _, p := range paths {
		stale[p] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.cache.Keys() {
		e, ok := c.cache.Peek(key)
		if !ok {
			continue
		}
		if stale[e.leftPath] || stale[e.rightPath] {
			c.cache.Remove(key)
		}
	}
}

// Len reports the number of cached entries (for tests/diagnostics).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}
