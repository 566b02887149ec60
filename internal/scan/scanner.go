// Package scan enumerates supported source files under a repository root,
// honoring the ignore matcher, and computes content checksums for the
// incremental updater.
package scan

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"

	"github.com/dryscan/dryscan/internal/ignore"
)

// File is one discovered source file.
type File struct {
	Path  string // repo-relative, POSIX, no leading "./"
	MTime int64  // milliseconds since epoch
}

// Scanner walks a root directory collecting files with an extension a
// registered extractor claims, skipping anything the ignore matcher
// rejects.
type Scanner struct {
	extensions map[string]bool
}

// New builds a scanner recognizing the given extensions (e.g. ".java").
func New(extensions []string) *Scanner {
	m := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		m[e] = true
	}
	return &Scanner{extensions: m}
}

// Scan walks root and returns every eligible file, sorted by path for
// deterministic output.
func (s *Scanner) Scan(root string, matcher *ignore.Matcher) ([]File, error) {
	var out []File
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if matcher.Ignores(rel, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if !s.extensions[filepath.Ext(path)] {
			return nil
		}
		out = append(out, File{Path: rel, MTime: info.ModTime().UnixMilli()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Checksum returns the MD5 hex digest of a file's UTF-8 content.
func Checksum(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

// ChecksumBytes returns the MD5 hex digest of the given content.
func ChecksumBytes(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
