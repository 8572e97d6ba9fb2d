package fshelper

import (
	"archive/zip"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// NameFS is a closable filesystem that has a name
type NameFS interface {
	fs.FS
	Name() string
	Close() error
}

// DirFS represents a directory filesystem with a name
type DirFS struct {
	fs.FS
	name string
}

// Name returns the name of the filesystem
func (d *DirFS) Name() string {
	return d.name
}

// Close is a no-op for directories
func (d *DirFS) Close() error {
	return nil
}

// ZipFS represents a zip filesystem with a name
type ZipFS struct {
	*zip.Reader
	name string
	f    *os.File
}

// Name returns the name of the filesystem
func (z *ZipFS) Name() string {
	return z.name
}

// Close closes the zip file
func (z *ZipFS) Close() error {
	if z.f != nil {
		return z.f.Close()
	}
	return nil
}

// Open opens a directory or a .zip archive as a filesystem
func Open(path string) (NameFS, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("path does not exist: %s", path)
		}
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}

	switch {
	case info.IsDir():
		return &DirFS{
			FS:   os.DirFS(path),
			name: filepath.Base(path),
		}, nil
	case strings.HasSuffix(strings.ToLower(path), ".zip"):
		return OpenZip(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}
}

// OpenZip opens a zip file and returns a filesystem
func OpenZip(path string) (*ZipFS, error) {
	zipFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening zip file: %w", err)
	}

	info, err := zipFile.Stat()
	if err != nil {
		zipFile.Close()
		return nil, fmt.Errorf("error getting zip file info: %w", err)
	}

	zipReader, err := zip.NewReader(zipFile, info.Size())
	if err != nil {
		zipFile.Close()
		return nil, fmt.Errorf("error creating zip reader: %w", err)
	}

	return &ZipFS{
		Reader: zipReader,
		name:   filepath.Base(path),
		f:      zipFile,
	}, nil
}
