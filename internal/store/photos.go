package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/bstardust/photosync/internal/logger"
	"github.com/bstardust/photosync/pkg/common"
	"github.com/bstardust/photosync/pkg/models"
)

// maxHashesPerQuery keeps IN lists under SQLite's bound-parameter limit.
const maxHashesPerQuery = 500

var photoColumns = []string{
	"id", "user_id", "object_key", "url", "content_hash", "taken_at", "location",
	"latitude", "longitude", "original_name", "content_type", "size_bytes", "created_at",
}

// PhotoRepository stores photo records in the photos table.
type PhotoRepository struct {
	db *DB
}

func NewPhotoRepository(db *DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// FindExistingHashes returns the subset of hashes already recorded for the
// user. An empty input returns an empty set without querying.
func (r *PhotoRepository) FindExistingHashes(ctx context.Context, userID string, hashes []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(hashes) == 0 {
		return existing, nil
	}

	for start := 0; start < len(hashes); start += maxHashesPerQuery {
		end := min(start+maxHashesPerQuery, len(hashes))

		query, args, err := r.db.builder.
			Select("content_hash").
			From("photos").
			Where(sq.Eq{"user_id": userID}).
			Where(sq.Eq{"content_hash": hashes[start:end]}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build hash query: %w", err)
		}

		if err := r.collectHashes(ctx, query, args, existing); err != nil {
			return nil, err
		}
	}

	logger.L().Debug().Str("user", userID).Int("checked", len(hashes)).Int("existing", len(existing)).Msg("checked content hashes")
	return existing, nil
}

func (r *PhotoRepository) collectHashes(ctx context.Context, query string, args []any, into map[string]struct{}) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query existing hashes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return fmt.Errorf("scan content hash: %w", err)
		}
		into[h] = struct{}{}
	}
	return rows.Err()
}

// InsertPhoto records an uploaded photo. A record with the same user and
// content hash yields common.ErrDuplicatePhoto.
func (r *PhotoRepository) InsertPhoto(ctx context.Context, rec models.PhotoRecord) error {
	var lat, lon sql.NullFloat64
	if rec.GPS != nil {
		lat = sql.NullFloat64{Float64: rec.GPS.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: rec.GPS.Longitude, Valid: true}
	}

	query, args, err := r.db.builder.
		Insert("photos").
		Columns(photoColumns...).
		Values(
			rec.ID, rec.UserID, rec.ObjectKey, rec.URL, nullString(rec.ContentHash),
			rec.TakenAt.UTC(), nullString(rec.Location), lat, lon,
			rec.OriginalName, rec.ContentType, rec.Size, rec.CreatedAt.UTC(),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert photo %s: %w", rec.ID, common.ErrDuplicatePhoto)
		}
		return fmt.Errorf("insert photo %s: %w", rec.ID, err)
	}
	return nil
}

// CountPhotos returns how many photos the user has recorded.
func (r *PhotoRepository) CountPhotos(ctx context.Context, userID string) (int, error) {
	query, args, err := r.db.builder.
		Select("COUNT(*)").
		From("photos").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count photos: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
