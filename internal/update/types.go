// Package update implements the incremental updater and its one-shot
// initializer variant, grounded on the mtime-then-checksum diff algorithm
// from the pack's incremental-detector reference and the teacher's
// internal/index Runner dependency-injection shape, generalized from a
// hash-only diff to spec.md §4.5's mtime-first, checksum-fallback scheme.
package update

import (
	"log/slog"

	"github.com/dryscan/dryscan/internal/dupcache"
	"github.com/dryscan/dryscan/internal/embedclient"
	"github.com/dryscan/dryscan/internal/extract"
	"github.com/dryscan/dryscan/internal/ignore"
	"github.com/dryscan/dryscan/internal/scan"
	"github.com/dryscan/dryscan/internal/unit"
)

// defaultMaxConcurrency bounds parallel per-file extraction and
// per-unit embedding requests when Deps.MaxConcurrency is left at zero.
const defaultMaxConcurrency = 8

// store is the subset of *store.Store the updater needs.
type store interface {
	ListFileRecords() ([]unit.FileRecord, error)
	ListUnits() ([]*unit.Unit, error)
	DeleteUnitsByFilePaths(paths []string) error
	SaveUnits(units []*unit.Unit) error
	UpdateUnitEmbedding(id string, embedding []float32) error
	SaveFileRecords(records []unit.FileRecord) error
	DeleteFileRecords(paths []string) error
}

// Deps are the updater's collaborators, injected rather than constructed
// internally so callers (and tests) own their lifecycle.
type Deps struct {
	Store          store
	Scanner        *scan.Scanner
	Matcher        *ignore.Matcher
	Extractors     *extract.Registry
	Embedder       embedclient.Client
	Cache          *dupcache.Cache
	Logger         *slog.Logger
	MaxConcurrency int
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func (d Deps) maxConcurrency() int {
	if d.MaxConcurrency > 0 {
		return d.MaxConcurrency
	}
	return defaultMaxConcurrency
}

// Result reports how many files fell into each bucket of the diff.
type Result struct {
	Added     int
	Changed   int
	Deleted   int
	Unchanged int
}
