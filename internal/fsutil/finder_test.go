package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o600))
}

func TestFindIndexed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{
		"output00000010.xml",
		"output00000002.xml",
		"output00000002_cells.mat",
		"outputfinal.xml",
		"initial.xml",
		"output00000000.xml",
	} {
		touch(t, filepath.Join(dir, name))
	}

	files, err := FindIndexed(dir, "output", ".xml")
	require.NoError(t, err)

	want := []IndexedFile{
		{Index: 0, Path: filepath.Join(dir, "output00000000.xml")},
		{Index: 2, Path: filepath.Join(dir, "output00000002.xml")},
		{Index: 10, Path: filepath.Join(dir, "output00000010.xml")},
	}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("FindIndexed() mismatch (-want +got):\n%s", diff)
	}
}

func TestFindFilesByExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "snapshot00000001.svg"))
	touch(t, filepath.Join(dir, "nested", "snapshot00000002.svg"))
	touch(t, filepath.Join(dir, "legend.png"))

	files, err := FindFilesByExtension(dir, ".svg")
	require.NoError(t, err)
	require.Len(t, files, 2)
}

func TestIsDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	touch(t, file)

	require.True(t, IsDir(dir))
	require.False(t, IsDir(file))
	require.False(t, IsDir(filepath.Join(dir, "missing")))
}
