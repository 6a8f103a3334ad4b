package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func realTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func TestResolveUnder(t *testing.T) {
	base := realTempDir(t)

	got, err := ResolveUnder(base, "2026/shoot/IMG_0001.CR2")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "2026", "shoot", "IMG_0001.CR2"), got)

	got, err = ResolveUnder(base, "a/../b.jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "b.jpg"), got)
}

func TestResolveUnder_SymlinkInsideBase(t *testing.T) {
	base := realTempDir(t)
	require.NoError(t, os.MkdirAll(filepath.Join(base, "2026", "shoot"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "2026", "shoot", "a.jpg"), []byte("x"), 0644))
	require.NoError(t, os.Symlink(filepath.Join(base, "2026"), filepath.Join(base, "latest")))

	got, err := ResolveUnder(base, "latest/shoot/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "2026", "shoot", "a.jpg"), got)
}

func TestResolveUnder_Rejects(t *testing.T) {
	base := realTempDir(t)

	for _, rel := range []string{"../secret.jpg", "a/../../b.jpg", "/etc/passwd"} {
		_, err := ResolveUnder(base, rel)
		assert.ErrorIs(t, err, ErrOutsideBase, rel)
	}

	_, err := ResolveUnder(base, "  ")
	assert.Error(t, err)
}

func TestResolveUnder_RejectsSymlinkEscape(t *testing.T) {
	base := realTempDir(t)
	outside := realTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.png"), []byte("x"), 0644))
	require.NoError(t, os.Symlink(outside, filepath.Join(base, "link")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.png"), filepath.Join(base, "direct.png")))

	for _, rel := range []string{"link/secret.png", "direct.png", "link/missing.png", "link"} {
		_, err := ResolveUnder(base, rel)
		assert.ErrorIs(t, err, ErrOutsideBase, rel)
	}
}
