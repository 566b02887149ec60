package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dryscan/dryscan/internal/ignore"
)

func TestScannerCollectsEligibleFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "test"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "Main.java"), []byte("class Main {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "test", "MainTest.java"), []byte("class MainTest {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "readme.txt"), []byte("hi"), 0o644))

	m, err := ignore.Build(root, []string{"**/test/**"})
	require.NoError(t, err)

	s := New([]string{".java"})
	files, err := s.Scan(root, m)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "src/Main.java", files[0].Path)
}

func TestChecksumStable(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.java")
	require.NoError(t, os.WriteFile(p, []byte("class A {}"), 0o644))

	c1, err := Checksum(p)
	require.NoError(t, err)
	c2 := ChecksumBytes([]byte("class A {}"))
	require.Equal(t, c1, c2)
}
