package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/bstardust/photosync/pkg/common"
)

// CheckpointRepository keeps one last-sync timestamp per user.
type CheckpointRepository struct {
	db *DB
}

func NewCheckpointRepository(db *DB) *CheckpointRepository {
	return &CheckpointRepository{db: db}
}

// GetCheckpoint returns nil when the user has never synced. Any database
// failure is reported as common.ErrCheckpointUnavailable.
func (r *CheckpointRepository) GetCheckpoint(ctx context.Context, userID string) (*time.Time, error) {
	query, args, err := r.db.builder.
		Select("last_sync_at").
		From("sync_checkpoints").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build checkpoint query: %w", err)
	}

	var at time.Time
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&at)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %v", common.ErrCheckpointUnavailable, err)
	}
	return &at, nil
}

func (r *CheckpointRepository) SetCheckpoint(ctx context.Context, userID string, at time.Time) error {
	query, args, err := r.db.builder.
		Insert("sync_checkpoints").
		Columns("user_id", "last_sync_at").
		Values(userID, at.UTC()).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET last_sync_at = excluded.last_sync_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build checkpoint upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set checkpoint for %s: %w", userID, err)
	}
	return nil
}
