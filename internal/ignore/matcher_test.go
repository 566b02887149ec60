package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatcherHardDefaults(t *testing.T) {
	m := New()
	m.AddPattern(".git/**")
	m.AddPattern(".dry/**")

	require.True(t, m.Ignores(".git/HEAD", false))
	require.True(t, m.Ignores(".dry/index.db", false))
	require.False(t, m.Ignores("src/Main.java", false))
}

func TestMatcherExcludedPathsGlob(t *testing.T) {
	m := New()
	m.AddPattern("**/test/**")

	require.True(t, m.Ignores("src/test/Foo.java", false))
	require.False(t, m.Ignores("src/main/Foo.java", false))
}

func TestMatcherScopedGitignoreAndNegation(t *testing.T) {
	m := New()
	m.AddPatternWithBase("*.class", "a/b")
	require.True(t, m.Ignores("a/b/Foo.class", false))
	require.False(t, m.Ignores("c/d/Foo.class", false))

	m.AddPatternWithBase("!Keep.class", "a/b")
	require.False(t, m.Ignores("a/b/Keep.class", false))
}

func TestBuildComposesSources(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", ".gitignore"), []byte("*.tmp\n"), 0o644))

	m, err := Build(root, []string{"**/test/**"})
	require.NoError(t, err)

	require.True(t, m.Ignores(".git/HEAD", false))
	require.True(t, m.Ignores("sub/scratch.tmp", false))
	require.False(t, m.Ignores("other/scratch.tmp", false))
	require.True(t, m.Ignores("src/test/Foo.java", false))
}
