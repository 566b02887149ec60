// Package app is the application root: it owns every long-lived
// collaborator (the per-repo config cache, one store and duplication
// cache per opened repository, the embedding client) and exposes the
// handful of operations a CLI or other frontend drives, grounded on the
// teacher's root command wiring its daemon's collaborators once and
// sharing them across subcommands.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dryscan/dryscan/internal/dryconfig"
	"github.com/dryscan/dryscan/internal/duplicate"
	"github.com/dryscan/dryscan/internal/dupcache"
	"github.com/dryscan/dryscan/internal/embedclient"
	"github.com/dryscan/dryscan/internal/exclusion"
	"github.com/dryscan/dryscan/internal/extract"
	"github.com/dryscan/dryscan/internal/ignore"
	"github.com/dryscan/dryscan/internal/report"
	"github.com/dryscan/dryscan/internal/scan"
	"github.com/dryscan/dryscan/internal/store"
	"github.com/dryscan/dryscan/internal/update"
	"github.com/dryscan/dryscan/internal/watch"
)

// App is the shared root: one per process, opened lazily per repository
// root the first time any operation touches it.
type App struct {
	mu        sync.Mutex
	configs   *dryconfig.Cache
	repos     map[string]*repo
	logger    *slog.Logger
	extractor *extract.Registry
}

// repo bundles the collaborators opened for one repository root.
type repo struct {
	store    *store.Store
	cache    *dupcache.Cache
	embedder embedclient.Client
	// embeddingSource remembers which provider the embedder was built
	// for, so a config change that switches providers rebuilds it.
	embeddingSource string
	contextLength   int
}

// New constructs an application root. logger may be nil, in which case
// slog.Default() is used.
func New(logger *slog.Logger) *App {
	return &App{
		configs:   dryconfig.NewCache(),
		repos:     make(map[string]*repo),
		logger:    logger,
		extractor: extract.Default(),
	}
}

func (a *App) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}

// open returns the repo bundle for root, opening the store and (re)building
// the embedder if the config's embeddingSource/contextLength changed since
// the last open.
func (a *App) open(root string, cfg dryconfig.Config) (*repo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	r, ok := a.repos[root]
	if !ok {
		st, err := store.Init(root)
		if err != nil {
			return nil, fmt.Errorf("opening store for %s: %w", root, err)
		}
		r = &repo{store: st, cache: dupcache.New()}
		a.repos[root] = r
	}

	if r.embedder == nil || r.embeddingSource != cfg.EmbeddingSource || r.contextLength != cfg.ContextLength {
		embedder, err := embedclient.New(embedclient.Config{
			Source:        cfg.EmbeddingSource,
			ContextLength: cfg.ContextLength,
		})
		if err != nil {
			return nil, err
		}
		r.embedder = embedder
		r.embeddingSource = cfg.EmbeddingSource
		r.contextLength = cfg.ContextLength
	}

	return r, nil
}

// deps builds the update.Deps for one pass over root using its loaded
// config, rebuilding the ignore matcher every time since excludedPaths can
// change between calls.
func (a *App) deps(root string, cfg dryconfig.Config, r *repo) (update.Deps, error) {
	matcher, err := ignore.Build(root, cfg.ExcludedPaths)
	if err != nil {
		return update.Deps{}, err
	}
	return update.Deps{
		Store:      r.store,
		Scanner:    scan.New(a.extractor.Extensions()),
		Matcher:    matcher,
		Extractors: a.extractor,
		Embedder:   r.embedder,
		Cache:      r.cache,
		Logger:     a.log(),
	}, nil
}

// Init runs the one-shot initializer over a fresh or existing repository
// root: extract-all, embed-all, record-files, then clean anything already
// excluded by the loaded config.
func (a *App) Init(ctx context.Context, root string) (update.Result, error) {
	cfg, err := a.configs.Get(root)
	if err != nil {
		return update.Result{}, err
	}
	r, err := a.open(root, cfg)
	if err != nil {
		return update.Result{}, err
	}
	d, err := a.deps(root, cfg, r)
	if err != nil {
		return update.Result{}, err
	}
	return update.Init(ctx, root, cfg, d)
}

// UpdateIndex runs one incremental update pass over root.
func (a *App) UpdateIndex(ctx context.Context, root string) (update.Result, error) {
	cfg, err := a.configs.Get(root)
	if err != nil {
		return update.Result{}, err
	}
	r, err := a.open(root, cfg)
	if err != nil {
		return update.Result{}, err
	}
	d, err := a.deps(root, cfg, r)
	if err != nil {
		return update.Result{}, err
	}
	return update.Update(ctx, root, cfg, d)
}

// FindDuplicates scores the current index and writes a fresh report
// artifact to the store's reports dir, returning it.
func (a *App) FindDuplicates(ctx context.Context, root string) (report.Artifact, error) {
	cfg, err := a.configs.Get(root)
	if err != nil {
		return report.Artifact{}, err
	}
	r, err := a.open(root, cfg)
	if err != nil {
		return report.Artifact{}, err
	}

	units, err := r.store.ListUnits()
	if err != nil {
		return report.Artifact{}, err
	}

	engine := duplicate.New(r.cache)
	groups, score := engine.FindDuplicates(units, cfg)

	now := time.Now().UTC()
	artifact := report.Build(groups, score, cfg.Threshold, now)
	if _, err := report.Write(r.store.ReportsDir(), artifact, now); err != nil {
		return report.Artifact{}, err
	}
	return artifact, nil
}

// LatestReport loads the most recently written report artifact for root
// without recomputing duplicates.
func (a *App) LatestReport(root string) (report.Artifact, error) {
	cfg, err := a.configs.Get(root)
	if err != nil {
		return report.Artifact{}, err
	}
	r, err := a.open(root, cfg)
	if err != nil {
		return report.Artifact{}, err
	}
	artifact, _, err := report.LoadLatest(r.store.ReportsDir())
	return artifact, err
}

// ApplyExclusionFromLatestReport appends the exclusion string for shortID
// (read from the latest report artifact) to the repo's excludedPairs, if
// not already present, and persists the updated config.
func (a *App) ApplyExclusionFromLatestReport(root, shortID string) (exclusionString string, added bool, err error) {
	cfg, err := a.configs.Get(root)
	if err != nil {
		return "", false, err
	}
	r, err := a.open(root, cfg)
	if err != nil {
		return "", false, err
	}

	updated, exclusionString, added, err := report.ApplyExclusion(r.store.ReportsDir(), shortID, cfg.ExcludedPairs)
	if err != nil {
		return "", false, err
	}
	if !added {
		return exclusionString, false, nil
	}
	cfg.ExcludedPairs = updated
	if err := a.configs.Save(root, cfg); err != nil {
		return "", false, err
	}
	return exclusionString, true, nil
}

// CleanExclusions drops any excludedPairs entries no live pair in the
// current index could produce anymore and persists the trimmed config.
func (a *App) CleanExclusions(root string) (exclusion.CleanResult, error) {
	cfg, err := a.configs.Get(root)
	if err != nil {
		return exclusion.CleanResult{}, err
	}
	r, err := a.open(root, cfg)
	if err != nil {
		return exclusion.CleanResult{}, err
	}

	result, err := exclusion.CleanExclusions(r.store, cfg.ExcludedPairs)
	if err != nil {
		return exclusion.CleanResult{}, err
	}
	cfg.ExcludedPairs = result.Kept
	if err := a.configs.Save(root, cfg); err != nil {
		return exclusion.CleanResult{}, err
	}
	return result, nil
}

// Watch runs UpdateIndex once, then blocks watching root for filesystem
// changes, running another UpdateIndex after each debounced batch, until
// ctx is canceled. onResult, if non-nil, is called after every pass
// (including the initial one) with its Result and error.
func (a *App) Watch(ctx context.Context, root string, onResult func(update.Result, error)) error {
	report := func() {
		result, err := a.UpdateIndex(ctx, root)
		if onResult != nil {
			onResult(result, err)
		}
	}
	report()

	cfg, err := a.configs.Get(root)
	if err != nil {
		return err
	}
	matcher, err := ignore.Build(root, cfg.ExcludedPaths)
	if err != nil {
		return err
	}
	skipDir := func(rel string) bool { return matcher.Ignores(rel, true) }

	return watch.Watch(ctx, root, skipDir, report, a.log())
}

// Close releases every opened store.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var firstErr error
	for root, r := range a.repos {
		if err := r.store.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing store for %s: %w", root, err)
		}
	}
	a.repos = make(map[string]*repo)
	return firstErr
}
