package fshelper

import (
	"archive/zip"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("jpeg"), 0644))

	fsys, err := Open(dir)
	require.NoError(t, err)
	defer fsys.Close()

	assert.Equal(t, filepath.Base(dir), fsys.Name())
	data, err := fs.ReadFile(fsys, "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
}

func TestOpen_Zip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("DCIM/a.jpg")
	require.NoError(t, err)
	_, err = w.Write([]byte("jpeg"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	fsys, err := Open(path)
	require.NoError(t, err)
	defer fsys.Close()

	assert.Equal(t, "camera.zip", fsys.Name())
	data, err := fs.ReadFile(fsys, "DCIM/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "does not exist")

	plain := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(plain, []byte("x"), 0644))
	_, err = Open(plain)
	assert.ErrorContains(t, err, "unsupported")

	bogus := filepath.Join(t.TempDir(), "bogus.zip")
	require.NoError(t, os.WriteFile(bogus, []byte("not a zip"), 0644))
	_, err = Open(bogus)
	assert.ErrorContains(t, err, "zip reader")
}
