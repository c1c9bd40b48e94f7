package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/msgforge/internal/extract"
)

func TestWatchRoots(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "src"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "lib"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "lib", "util.py"), []byte("x = 1\n"), 0644))

	// Duplicates collapse, a file entry watches its directory, missing
	// entries are skipped with a warning.
	spec := &extract.SourceSpec{
		BasePath:    base,
		SearchPaths: []string{"src", "src", "lib/util.py", "does-not-exist"},
	}

	roots := watchRoots(spec)
	assert.Equal(t, []string{
		filepath.Join(base, "src"),
		filepath.Join(base, "lib"),
	}, roots)
}

func TestWatchRootsEmptySpec(t *testing.T) {
	t.Parallel()

	spec := &extract.SourceSpec{BasePath: t.TempDir()}
	assert.Empty(t, watchRoots(spec))
}
