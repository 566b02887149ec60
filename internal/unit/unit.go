// Package unit defines the core data types shared across the indexing
// pipeline and the duplicate engine: index units, file records, and the
// unit-kind tag set.
package unit

import "fmt"

// Kind tags the three shapes of indexable code fragment.
type Kind string

const (
	Class    Kind = "class"
	Function Kind = "function"
	Block    Kind = "block"
)

func (k Kind) String() string { return string(k) }

// Valid reports whether k is one of the recognized kinds.
func (k Kind) Valid() bool {
	switch k {
	case Class, Function, Block:
		return true
	default:
		return false
	}
}

// Unit is a single indexed code fragment: a class, a function/method, or a
// block nested inside a function body.
type Unit struct {
	ID       string
	Name     string
	FilePath string
	Kind     Kind

	StartLine int // 1-based, inclusive
	EndLine   int // 1-based, inclusive

	Code string

	ParentID string // empty when the unit has no enclosing unit

	Embedding []float32 // nil until computed; stays nil when skipped (oversize)

	// Children is a transient, in-memory-only navigational link populated
	// when units are loaded with relations. It is never persisted.
	Children []*Unit
}

// Lines returns the inclusive line count of the unit.
func (u *Unit) Lines() int {
	return u.EndLine - u.StartLine + 1
}

// HasEmbedding reports whether the unit has a computed embedding.
func (u *Unit) HasEmbedding() bool {
	return u.Embedding != nil
}

// ID builds the canonical identity string for a unit: "{kind}:{qualifiedName}:{start}-{end}".
func ID(kind Kind, qualifiedName string, startLine, endLine int) string {
	return fmt.Sprintf("%s:%s:%d-%d", kind, qualifiedName, startLine, endLine)
}

// FileRecord tracks a single source file under the repository root.
type FileRecord struct {
	FilePath string // primary key, repo-relative POSIX path
	Checksum string // MD5 hex of UTF-8 content
	MTime    int64  // milliseconds since epoch
}
