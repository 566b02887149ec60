// Package dryconfig loads, validates, and caches the per-repository
// DryConfig, the tagged configuration record spec.md §9 asks for in place
// of the source's untyped, duck-typed JSON.
package dryconfig

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/dryscan/dryscan/internal/dryerrors"
)

// FileName is the config file's name at the repository root.
const FileName = "dryconfig.json"

// Config is the user-configurable settings for one repository root.
type Config struct {
	ExcludedPaths   []string `json:"excludedPaths"`
	ExcludedPairs   []string `json:"excludedPairs"`
	MinLines        int      `json:"minLines"`
	MinBlockLines   int      `json:"minBlockLines"`
	Threshold       float64  `json:"threshold"`
	EmbeddingSource string   `json:"embeddingSource"`
	ContextLength   int      `json:"contextLength"`
}

// Default returns the schema's documented defaults (spec.md §6).
func Default() Config {
	return Config{
		ExcludedPaths:   []string{"**/test/**"},
		ExcludedPairs:   []string{},
		MinLines:        3,
		MinBlockLines:   5,
		Threshold:       0.85,
		EmbeddingSource: "huggingface",
		ContextLength:   2048,
	}
}

// allowedKeys enumerates the schema's recognized top-level keys; any other
// top-level key makes the file invalid.
var allowedKeys = map[string]bool{
	"excludedPaths":   true,
	"excludedPairs":   true,
	"minLines":        true,
	"minBlockLines":   true,
	"threshold":       true,
	"embeddingSource": true,
	"contextLength":   true,
}

// Validate checks schema-level constraints beyond "does it unmarshal".
func (c Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return &dryerrors.ConfigInvalidError{Field: "threshold", Underlying: errInvalidThreshold}
	}
	if c.MinLines < 0 {
		return &dryerrors.ConfigInvalidError{Field: "minLines", Underlying: errNegative}
	}
	if c.MinBlockLines < 0 {
		return &dryerrors.ConfigInvalidError{Field: "minBlockLines", Underlying: errNegative}
	}
	if c.EmbeddingSource == "" {
		return &dryerrors.ConfigInvalidError{Field: "embeddingSource", Underlying: errEmpty}
	}
	return nil
}

var (
	errInvalidThreshold = simpleErr("threshold must be in [0,1]")
	errNegative         = simpleErr("must not be negative")
	errEmpty            = simpleErr("must not be empty")
)

type simpleErr string

func (e simpleErr) Error() string { return string(e) }

// path returns the config file path for a repo root.
func path(repoRoot string) string {
	return filepath.Join(repoRoot, FileName)
}

// Load reads, schema-validates, and parses the config at repoRoot. If the
// file does not exist and repoRoot is a real directory, it is created with
// defaults.
func Load(repoRoot string) (Config, error) {
	p := path(repoRoot)
	raw, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		if st, statErr := os.Stat(repoRoot); statErr != nil || !st.IsDir() {
			return Config{}, &dryerrors.PathNotFoundError{Path: repoRoot, Underlying: statErr}
		}
		cfg := Default()
		if saveErr := Save(repoRoot, cfg); saveErr != nil {
			return Config{}, saveErr
		}
		return cfg, nil
	}
	if err != nil {
		return Config{}, &dryerrors.ConfigInvalidError{Path: p, Underlying: err}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Config{}, &dryerrors.ConfigInvalidError{Path: p, Underlying: err}
	}
	for key := range fields {
		if !allowedKeys[key] {
			return Config{}, &dryerrors.ConfigInvalidError{Path: p, Field: key, Underlying: errUnknownKey}
		}
	}

	cfg := Default()
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, &dryerrors.ConfigInvalidError{Path: p, Underlying: err}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var errUnknownKey = simpleErr("unknown top-level key")

// Save atomically writes cfg to repoRoot/dryconfig.json.
func Save(repoRoot string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return &dryerrors.ConfigInvalidError{Path: path(repoRoot), Underlying: err}
	}
	tmp := path(repoRoot) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &dryerrors.ConfigInvalidError{Path: path(repoRoot), Underlying: err}
	}
	if err := os.Rename(tmp, path(repoRoot)); err != nil {
		return &dryerrors.ConfigInvalidError{Path: path(repoRoot), Underlying: err}
	}
	return nil
}

// Cache is the per-repo-root config cache spec.md §5/§9 requires as an
// explicit collaborator: lazily loaded, refreshed atomically on Save.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Config
}

// NewCache constructs an empty config cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Config)}
}

// Get returns the cached config for repoRoot, loading it on first access.
func (c *Cache) Get(repoRoot string) (Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cfg, ok := c.entries[repoRoot]; ok {
		return cfg, nil
	}
	cfg, err := Load(repoRoot)
	if err != nil {
		return Config{}, err
	}
	c.entries[repoRoot] = cfg
	return cfg, nil
}

// Save writes cfg to disk and replaces the cached snapshot.
func (c *Cache) Save(repoRoot string, cfg Config) error {
	if err := Save(repoRoot, cfg); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[repoRoot] = cfg
	return nil
}

// Invalidate drops the cached entry for repoRoot, forcing the next Get to
// reload from disk.
func (c *Cache) Invalidate(repoRoot string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, repoRoot)
}
