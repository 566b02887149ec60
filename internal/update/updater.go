package update

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dryscan/dryscan/internal/dryconfig"
	"github.com/dryscan/dryscan/internal/dryerrors"
	"github.com/dryscan/dryscan/internal/exclusion"
	"github.com/dryscan/dryscan/internal/extract"
	"github.com/dryscan/dryscan/internal/scan"
	"github.com/dryscan/dryscan/internal/unit"
)

// Update runs one incremental pass over repoRoot: diff the file listing
// against tracked FileRecords, then serially remove stale units, save
// fresh ones, embed them, and record the new file state (spec.md §4.5,
// §5's "update steps must be serialized per repository"). It always
// finishes by cleaning out anything now covered by excludedPaths
// (spec.md §4.8, run "after init/update"), even when no file changed,
// since excludedPaths itself may have changed since the last pass.
func Update(ctx context.Context, repoRoot string, cfg dryconfig.Config, deps Deps) (Result, error) {
	files, err := deps.Scanner.Scan(repoRoot, deps.Matcher)
	if err != nil {
		return Result{}, err
	}
	records, err := deps.Store.ListFileRecords()
	if err != nil {
		return Result{}, err
	}

	diff, err := classify(repoRoot, files, records)
	if err != nil {
		return Result{}, err
	}
	if !diff.dirty() {
		result := Result{Unchanged: diff.unchanged}
		if err := cleanupExcluded(deps, cfg); err != nil {
			return result, err
		}
		return result, nil
	}

	toRemove := append(append([]string{}, diff.changed...), diff.deleted...)
	if len(toRemove) > 0 {
		if err := deps.Store.DeleteUnitsByFilePaths(toRemove); err != nil {
			return Result{}, err
		}
	}

	toExtract := append(append([]string{}, diff.added...), diff.changed...)
	newUnits, failed, err := extractFiles(ctx, repoRoot, toExtract, cfg, deps)
	if err != nil {
		return Result{}, err
	}
	if len(newUnits) > 0 {
		if err := deps.Store.SaveUnits(newUnits); err != nil {
			return Result{}, err
		}
	}

	if err := embedUnits(ctx, newUnits, deps); err != nil {
		return Result{}, err
	}

	succeeded := subtract(toExtract, failed)
	if err := recordFiles(repoRoot, succeeded, diff, deps); err != nil {
		return Result{}, err
	}
	if len(diff.deleted) > 0 {
		if err := deps.Store.DeleteFileRecords(diff.deleted); err != nil {
			return Result{}, err
		}
	}

	if deps.Cache != nil {
		deps.Cache.InvalidatePaths(toRemove)
	}

	result := Result{
		Added:     len(diff.added),
		Changed:   len(diff.changed),
		Deleted:   len(diff.deleted),
		Unchanged: diff.unchanged,
	}
	if err := cleanupExcluded(deps, cfg); err != nil {
		return result, err
	}
	return result, nil
}

// cleanupExcluded purges any unit/FileRecord now covered by cfg's
// excludedPaths and invalidates the duplication cache for whatever it
// removed, so a config edit that adds a new excludedPaths pattern takes
// effect on the very next update, not only on a fresh init.
func cleanupExcluded(deps Deps, cfg dryconfig.Config) error {
	removed, err := exclusion.CleanupExcludedFiles(deps.Store, cfg.ExcludedPaths)
	if err != nil {
		return err
	}
	if deps.Cache != nil {
		deps.Cache.InvalidatePaths(removed)
	}
	return nil
}

// extractFiles reads and extracts every path in paths, bounded by
// Deps.MaxConcurrency since extraction only suspends on the file read
// (spec.md §5). A file with no registered extractor or a parse failure is
// logged and skipped; its FileRecord is deliberately not recorded by the
// caller so the next run retries it.
func extractFiles(ctx context.Context, repoRoot string, paths []string, cfg dryconfig.Config, deps Deps) ([]*unit.Unit, []string, error) {
	opts := extract.Options{MinLines: cfg.MinLines, MinBlockLines: cfg.MinBlockLines}

	var mu sync.Mutex
	var result []*unit.Unit
	var failed []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deps.maxConcurrency())

	for _, rel := range paths {
		rel := rel
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			extractor, ok := deps.Extractors.For(rel)
			if !ok {
				deps.logger().Warn("skipping unsupported file", slog.String("path", rel))
				mu.Lock()
				failed = append(failed, rel)
				mu.Unlock()
				return nil
			}

			abs := filepath.Join(repoRoot, rel)
			source, err := os.ReadFile(abs)
			if err != nil {
				deps.logger().Warn("failed to read file", slog.String("path", rel), slog.String("error", err.Error()))
				mu.Lock()
				failed = append(failed, rel)
				mu.Unlock()
				return nil
			}

			units, err := extractor.Extract(rel, source, opts)
			if err != nil {
				pf := &dryerrors.ParseFailureError{FilePath: rel, Underlying: err}
				deps.logger().Warn("file will be retried next run", slog.String("error", pf.Error()))
				mu.Lock()
				failed = append(failed, rel)
				mu.Unlock()
				return nil
			}

			mu.Lock()
			result = append(result, units...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return result, failed, nil
}

// subtract returns the elements of all not present in exclude.
func subtract(all, exclude []string) []string {
	if len(exclude) == 0 {
		return all
	}
	skip := make(map[string]bool, len(exclude))
	for _, p := range exclude {
		skip[p] = true
	}
	out := make([]string, 0, len(all))
	for _, p := range all {
		if !skip[p] {
			out = append(out, p)
		}
	}
	return out
}

// embedUnits requests an embedding for every newly-saved unit, bounded by
// Deps.MaxConcurrency. A provider error aborts the update; an
// oversize-code skip (nil, nil) leaves the unit's embedding unset.
func embedUnits(ctx context.Context, units []*unit.Unit, deps Deps) error {
	if deps.Embedder == nil || len(units) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deps.maxConcurrency())

	for _, u := range units {
		u := u
		g.Go(func() error {
			vec, err := deps.Embedder.Embed(gctx, u.Code)
			if err != nil {
				return &dryerrors.EmbeddingUnavailableError{Source: u.FilePath, Underlying: err}
			}
			if vec == nil {
				return nil
			}
			return deps.Store.UpdateUnitEmbedding(u.ID, vec)
		})
	}
	return g.Wait()
}

// recordFiles recomputes checksum+mtime for every added/changed path and
// saves the resulting FileRecords in one batch, last among the update
// steps so a reader never sees stale units alongside new FileRecords.
func recordFiles(repoRoot string, paths []string, diff classification, deps Deps) error {
	if len(paths) == 0 {
		return nil
	}
	records := make([]unit.FileRecord, 0, len(paths))
	for _, rel := range paths {
		checksum, err := scan.Checksum(filepath.Join(repoRoot, rel))
		if err != nil {
			return err
		}
		records = append(records, unit.FileRecord{
			FilePath: rel,
			Checksum: checksum,
			MTime:    diff.mtimeOf[rel],
		})
	}
	return deps.Store.SaveFileRecords(records)
}
