package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveStorePathPrefersXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	t.Setenv("HOME", "/home/someone")

	path, err := ResolveStorePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg-data", "typetrace", "TypeTrace.db"), path)
}

func TestResolveStorePathFallsBackToHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "/home/someone")

	path, err := ResolveStorePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/someone", ".local", "share", "typetrace", "TypeTrace.db"), path)
}

func TestResolveStorePathFailsWithNoEnv(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "")

	_, err := ResolveStorePath()
	assert.Error(t, err)
}

func TestResolveStorePathIsPure(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	t.Setenv("HOME", "")

	first, err := ResolveStorePath()
	require.NoError(t, err)
	second, err := ResolveStorePath()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEnsureParentsCreatesMissingDirs(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a", "b", "c", "TypeTrace.db")

	require.NoError(t, EnsureParents(target))

	info, err := os.Stat(filepath.Join(dir, "a", "b", "c"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureParentsToleratesExisting(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "TypeTrace.db")

	require.NoError(t, EnsureParents(target))
	require.NoError(t, EnsureParents(target))
}
