// Package extract implements the language extractor capability: parsing a
// source file via tree-sitter and yielding CLASS/FUNCTION/BLOCK index
// units with language-specific triviality skipping. The reference
// implementation targets Java; the Extractor interface is language-
// agnostic per spec.md §4.2/§9.
package extract

import (
	"github.com/dryscan/dryscan/internal/unit"
)

// Options carries the config knobs the extractor needs: minimum line
// counts for CLASS/FUNCTION and BLOCK units.
type Options struct {
	MinLines      int
	MinBlockLines int
}

// blockMinLinesConstant is the fixed floor spec.md §4.2 names alongside
// config.minBlockLines: a block is only ever a candidate unit once it is
// at least this many lines, regardless of how low minBlockLines is set.
const blockMinLinesConstant = 5

// effectiveBlockMinLines returns max(blockMinLinesConstant, configured).
func (o Options) effectiveBlockMinLines() int {
	if o.MinBlockLines > blockMinLinesConstant {
		return o.MinBlockLines
	}
	return blockMinLinesConstant
}

// Extractor is the polymorphic capability spec.md §4.2/§9 describes:
// supports(path), extract(path, source) -> [Unit]. Label derivation lives
// in internal/pairing and is not part of this interface — it operates
// purely on the already-extracted Unit.
type Extractor interface {
	// Supports reports whether this extractor claims the given file
	// extension (e.g. ".java").
	Supports(path string) bool

	// Extract parses source and returns the units it finds, in no
	// particular order. Parent/child IDs are set but Children links are
	// left for the caller (the store) to populate on load.
	Extract(path string, source []byte, opts Options) ([]*unit.Unit, error)
}

// Registry holds the statically-registered set of extractors. Per
// spec.md §9, registration is static at startup — no dynamic plugin
// loading.
type Registry struct {
	extractors []Extractor
}

// NewRegistry builds a registry with the given extractors.
func NewRegistry(extractors ...Extractor) *Registry {
	return &Registry{extractors: extractors}
}

// Default returns the registry used by the core: the Java extractor.
func Default() *Registry {
	return NewRegistry(NewJavaExtractor())
}

// For returns the extractor claiming path, if any.
func (r *Registry) For(path string) (Extractor, bool) {
	for _, e := range r.extractors {
		if e.Supports(path) {
			return e, true
		}
	}
	return nil, false
}

// Extensions lists the extensions claimed by the registered
// *JavaExtractor values, used by the scanner to decide file eligibility
// without parsing. Extractors of any other type contribute none.
func (r *Registry) Extensions() []string {
	var exts []string
	for _, e := range r.extractors {
		if je, ok := e.(*JavaExtractor); ok {
			exts = append(exts, je.extensions...)
		}
	}
	return exts
}
