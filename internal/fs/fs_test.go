package fs

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateSecureFolder(t *testing.T) {
	dir := path.Join(t.TempDir(), "keys")

	got, err := CreateSecureFolder(dir)
	require.NoError(t, err)
	require.Equal(t, dir, got)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.Zero(t, info.Mode().Perm()&0o007)

	// idempotent on an already-secure folder
	_, err = CreateSecureFolder(dir)
	require.NoError(t, err)

	// world-accessible folders are refused
	open := path.Join(t.TempDir(), "open")
	require.NoError(t, os.MkdirAll(open, 0o755))
	_, err = CreateSecureFolder(open)
	require.Error(t, err)
}

func TestCreateSecureFile(t *testing.T) {
	file := path.Join(t.TempDir(), "share.toml")
	fd, err := CreateSecureFile(file)
	require.NoError(t, err)
	_, err = fd.WriteString("data")
	require.NoError(t, err)
	require.NoError(t, fd.Close())

	info, err := os.Stat(file)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.True(t, FileExists(path.Dir(file), "share.toml"))
	require.False(t, FileExists(path.Dir(file), "other.toml"))
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	ok, err := Exists(dir)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Exists(path.Join(dir, "missing"))
	require.NoError(t, err)
	require.False(t, ok)
}
