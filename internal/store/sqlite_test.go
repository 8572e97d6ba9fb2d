package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bstardust/photosync/pkg/common"
	"github.com/bstardust/photosync/pkg/models"
)

func openSQLite(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "photosync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return db
}

func TestSQLite_PhotoLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewPhotoRepository(openSQLite(t))

	rec := models.PhotoRecord{
		ID:          "p1",
		UserID:      "u1",
		ObjectKey:   "photos/u1/p1.jpg",
		URL:         "http://localhost/p1.jpg",
		ContentHash: "hash-1",
		TakenAt:     time.Date(2024, 3, 5, 10, 15, 30, 0, time.UTC),
		CreatedAt:   time.Now(),
	}
	require.NoError(t, repo.InsertPhoto(ctx, rec))

	dup := rec
	dup.ID = "p2"
	assert.ErrorIs(t, repo.InsertPhoto(ctx, dup), common.ErrDuplicatePhoto)

	// same bytes for another user is not a duplicate
	other := rec
	other.ID, other.UserID = "p3", "u2"
	require.NoError(t, repo.InsertPhoto(ctx, other))

	got, err := repo.FindExistingHashes(ctx, "u1", []string{"hash-1", "hash-2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"hash-1": {}}, got)

	n, err := repo.CountPhotos(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLite_ManyHashesAreChunked(t *testing.T) {
	ctx := context.Background()
	repo := NewPhotoRepository(openSQLite(t))

	hashes := make([]string, maxHashesPerQuery*2+10)
	for i := range hashes {
		hashes[i] = fmt.Sprintf("h%04d", i)
	}
	for _, i := range []int{3, maxHashesPerQuery + 1, len(hashes) - 1} {
		require.NoError(t, repo.InsertPhoto(ctx, models.PhotoRecord{
			ID: fmt.Sprintf("p%d", i), UserID: "u1", ContentHash: hashes[i], CreatedAt: time.Now(),
		}))
	}

	got, err := repo.FindExistingHashes(ctx, "u1", hashes)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSQLite_CheckpointUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewCheckpointRepository(openSQLite(t))

	got, err := repo.GetCheckpoint(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	first := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)
	require.NoError(t, repo.SetCheckpoint(ctx, "u1", first))
	require.NoError(t, repo.SetCheckpoint(ctx, "u1", second))

	got, err = repo.GetCheckpoint(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(second))
}
