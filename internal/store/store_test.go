package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dryscan/dryscan/internal/unit"
)

func TestStoreSaveAndListUnitsWithRelations(t *testing.T) {
	root := t.TempDir()
	s, err := Init(root)
	require.NoError(t, err)
	defer s.Close()

	class := &unit.Unit{ID: "class:A:1-10", Name: "A", FilePath: "A.java", Kind: unit.Class, StartLine: 1, EndLine: 10, Code: "class A { }"}
	fn := &unit.Unit{ID: "function:A.foo:2-8", Name: "A.foo", FilePath: "A.java", Kind: unit.Function, StartLine: 2, EndLine: 8, Code: "void foo(){}", ParentID: class.ID}

	require.NoError(t, s.SaveUnits([]*unit.Unit{class, fn}))

	all, err := s.ListUnits()
	require.NoError(t, err)
	require.Len(t, all, 2)

	var loadedClass *unit.Unit
	for _, u := range all {
		if u.ID == class.ID {
			loadedClass = u
		}
	}
	require.NotNil(t, loadedClass)
	require.Len(t, loadedClass.Children, 1)
	require.Equal(t, fn.ID, loadedClass.Children[0].ID)

	n, err := s.CountUnits()
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestStoreDeleteUnitsByFilePath(t *testing.T) {
	root := t.TempDir()
	s, err := Init(root)
	require.NoError(t, err)
	defer s.Close()

	u := &unit.Unit{ID: "class:A:1-2", Name: "A", FilePath: "A.java", Kind: unit.Class, StartLine: 1, EndLine: 2, Code: "class A {}"}
	require.NoError(t, s.SaveUnits([]*unit.Unit{u}))

	require.NoError(t, s.DeleteUnitsByFilePaths([]string{"A.java"}))

	n, err := s.CountUnits()
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestStoreFileRecords(t *testing.T) {
	root := t.TempDir()
	s, err := Init(root)
	require.NoError(t, err)
	defer s.Close()

	rec := unit.FileRecord{FilePath: "A.java", Checksum: "abc", MTime: 123}
	require.NoError(t, s.SaveFileRecords([]unit.FileRecord{rec}))

	got, err := s.GetFileRecord("A.java")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, rec.Checksum, got.Checksum)

	require.NoError(t, s.DeleteFileRecords([]string{"A.java"}))
	got, err = s.GetFileRecord("A.java")
	require.NoError(t, err)
	require.Nil(t, got)
}
