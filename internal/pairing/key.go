// Package pairing derives canonical pair keys from two same-kind units'
// extractor labels, and matches a stored key against a user-supplied
// pattern — the stable identity spec.md uses to let a duplicate pair
// survive re-indexing even though unit ids embed line positions.
package pairing

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/dryscan/dryscan/internal/unit"
)

// Key builds the order-canonical "{kind}|{a}|{b}" pair key for two labels
// of the same kind.
func Key(kind unit.Kind, labelA, labelB string) string {
	labels := []string{labelA, labelB}
	sort.Strings(labels)
	return string(kind) + "|" + labels[0] + "|" + labels[1]
}

// Parsed is a pair key split into its components.
type Parsed struct {
	Kind   unit.Kind
	Left   string
	Right  string
}

// Parse reverses Key, tolerating either orientation in the input (the
// two labels are re-sorted) and returning ok=false for malformed input.
func Parse(key string) (Parsed, bool) {
	parts := strings.SplitN(key, "|", 3)
	if len(parts) != 3 {
		return Parsed{}, false
	}
	kind := unit.Kind(parts[0])
	if !kind.Valid() {
		return Parsed{}, false
	}
	labels := []string{parts[1], parts[2]}
	sort.Strings(labels)
	return Parsed{Kind: kind, Left: labels[0], Right: labels[1]}, true
}

// Matches reports whether actual (an already-canonical pair key) matches
// pattern, per spec.md §4.6: kinds must be equal; CLASS labels (file
// paths) are glob-matched in either orientation; FUNCTION/BLOCK labels are
// matched by exact string equality in either orientation.
func Matches(actual, pattern string) bool {
	a, ok := Parse(actual)
	if !ok {
		return false
	}
	p, ok := Parse(pattern)
	if !ok {
		return false
	}
	if a.Kind != p.Kind {
		return false
	}

	if a.Kind == unit.Class {
		return (globMatch(p.Left, a.Left) && globMatch(p.Right, a.Right)) ||
			(globMatch(p.Left, a.Right) && globMatch(p.Right, a.Left))
	}

	return (a.Left == p.Left && a.Right == p.Right) ||
		(a.Left == p.Right && a.Right == p.Left)
}

func globMatch(pattern, name string) bool {
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}
