package devicefs

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/bstardust/photosync/internal/fshelper"
	"github.com/bstardust/photosync/internal/logger"
	"github.com/bstardust/photosync/pkg/models"
	"github.com/bstardust/photosync/pkg/s3client"
)

// Library is a device photo library backed by a directory or zip archive.
// It indexes JPEG files once, ordered by modification time then path.
type Library struct {
	fsys  fs.FS
	name  string
	refs  []models.PhotoRef
	byID  map[string]models.PhotoRef
	close func() error
}

// Open indexes the directory or .zip archive at path
func Open(ctx context.Context, path string) (*Library, error) {
	nfs, err := fshelper.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}

	lib, err := NewFromFS(ctx, nfs, nfs.Name())
	if err != nil {
		nfs.Close()
		return nil, err
	}
	lib.close = nfs.Close
	return lib, nil
}

// NewFromFS indexes an already opened filesystem
func NewFromFS(ctx context.Context, fsys fs.FS, name string) (*Library, error) {
	l := &Library{
		fsys: fsys,
		name: name,
		byID: make(map[string]models.PhotoRef),
	}
	if err := l.scan(ctx); err != nil {
		return nil, err
	}

	logger.L().Debug().Str("library", name).Int("photos", len(l.refs)).Msg("indexed device library")
	return l, nil
}

func (l *Library) scan(ctx context.Context) error {
	err := fs.WalkDir(l.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if d.IsDir() {
			if p != "." && skipName(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if skipName(d.Name()) || !s3client.IsJPEG(p) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logger.Warn("Failed to get file info for %s: %v", p, err)
			return nil
		}

		ref := models.PhotoRef{
			ID:      p,
			Path:    p,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		l.refs = append(l.refs, ref)
		l.byID[ref.ID] = ref
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan library %s: %w", l.name, err)
	}

	sort.SliceStable(l.refs, func(i, j int) bool {
		if !l.refs[i].ModTime.Equal(l.refs[j].ModTime) {
			return l.refs[i].ModTime.Before(l.refs[j].ModTime)
		}
		return l.refs[i].Path < l.refs[j].Path
	})
	return nil
}

// skipName filters hidden entries and archive tool metadata
func skipName(name string) bool {
	return strings.HasPrefix(name, ".") || name == "__MACOSX"
}

// Name returns the library name
func (l *Library) Name() string {
	return l.name
}

// Len returns the number of indexed photos
func (l *Library) Len() int {
	return len(l.refs)
}

// Close releases the underlying archive, if any
func (l *Library) Close() error {
	if l.close != nil {
		return l.close()
	}
	return nil
}

// ListSince returns photos modified strictly after since, or every photo
// when since is nil.
func (l *Library) ListSince(ctx context.Context, since *time.Time) ([]models.PhotoRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]models.PhotoRef, 0, len(l.refs))
	for _, ref := range l.refs {
		if since == nil || ref.ModTime.After(*since) {
			out = append(out, ref)
		}
	}
	return out, nil
}

// ListPicked returns the photos with the given ids in the given order.
// Unknown ids are logged and skipped.
func (l *Library) ListPicked(ctx context.Context, ids []string) ([]models.PhotoRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]models.PhotoRef, 0, len(ids))
	for _, id := range ids {
		ref, ok := l.byID[path.Clean(strings.TrimPrefix(id, "/"))]
		if !ok {
			logger.Warn("Picked photo %s is not in library %s", id, l.name)
			continue
		}
		out = append(out, ref)
	}
	return out, nil
}

// ReadBytes reads the whole photo
func (l *Library) ReadBytes(ctx context.Context, ref models.PhotoRef) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(l.fsys, ref.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ref.Path, err)
	}
	return data, nil
}
