package ignore

import (
	"os"
	"path/filepath"
)

// Build constructs the composed matcher per spec.md §4.1: hard defaults,
// then every .gitignore found under root (each rule scoped to its own
// directory), then the configured excludedPaths globs.
func Build(root string, excludedPaths []string) (*Matcher, error) {
	m := New()
	for _, p := range hardDefaults {
		m.AddPattern(p)
	}

	gitignores, err := discoverGitignores(root)
	if err != nil {
		return nil, err
	}
	for _, gi := range gitignores {
		if err := m.AddFromFile(gi.absPath, gi.base); err != nil {
			return nil, err
		}
	}

	for _, p := range excludedPaths {
		m.AddPattern(p)
	}
	return m, nil
}

type gitignoreFile struct {
	absPath string
	base    string // repo-relative POSIX directory containing the file, "" for root
}

// discoverGitignores walks root and returns every .gitignore file found,
// skipping the hard-default directories so they never affect discovery.
func discoverGitignores(root string) ([]gitignoreFile, error) {
	var found []gitignoreFile
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if info.IsDir() {
			if rel == ".git" || rel == ".dry" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Base(path) != ".gitignore" {
			return nil
		}
		base := filepath.ToSlash(filepath.Dir(rel))
		if base == "." {
			base = ""
		}
		found = append(found, gitignoreFile{absPath: path, base: base})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}
