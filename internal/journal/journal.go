// internal/journal/journal.go
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bstardust/photosync/internal/logger"
	"github.com/bstardust/photosync/pkg/common"
)

// Journal is a file-backed sync checkpoint store, one entry per user.
type Journal struct {
	mu          sync.Mutex
	path        string
	Checkpoints map[string]CheckpointEntry `json:"checkpoints"`
}

// CheckpointEntry represents the last successful sync of one user
type CheckpointEntry struct {
	UserID     string    `json:"user_id"`
	LastSyncAt time.Time `json:"last_sync_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// New creates a new journal
func New(path string) *Journal {
	if path == "" {
		// Use default path in user's home directory
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, ".photosync-journal.json")
		} else {
			path = ".photosync-journal.json"
		}
	}

	logger.Debug("Creating journal with path: %s", path)

	return &Journal{
		path:        path,
		Checkpoints: make(map[string]CheckpointEntry),
	}
}

// Path returns the journal file location
func (j *Journal) Path() string {
	return j.path
}

// Load loads the journal from disk. A missing file is an empty journal.
func (j *Journal) Load() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.load()
}

func (j *Journal) load() error {
	data, err := os.ReadFile(j.path)
	if os.IsNotExist(err) {
		logger.Info("No journal file found at %s, starting fresh", j.path)
		j.Checkpoints = make(map[string]CheckpointEntry)
		return nil
	}
	if err != nil {
		return err
	}

	var stored Journal
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse journal %s: %w", j.path, err)
	}

	j.Checkpoints = stored.Checkpoints
	if j.Checkpoints == nil {
		j.Checkpoints = make(map[string]CheckpointEntry)
	}
	logger.Debug("Loaded journal with %d entries from %s", len(j.Checkpoints), j.path)
	return nil
}

// Save writes the journal to disk through a temporary file so a crash never
// leaves a truncated journal behind.
func (j *Journal) Save() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.save()
}

func (j *Journal) save() error {
	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}

	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".journal-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp journal: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write journal file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write journal file: %w", err)
	}
	if err := os.Rename(tmp.Name(), j.path); err != nil {
		return fmt.Errorf("failed to replace journal file: %w", err)
	}

	logger.Debug("Saved journal with %d entries to %s", len(j.Checkpoints), j.path)
	return nil
}

// GetCheckpoint reloads the journal and returns the user's last sync time,
// or nil if the user has never synced.
func (j *Journal) GetCheckpoint(ctx context.Context, userID string) (*time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.load(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCheckpointUnavailable, err)
	}

	entry, ok := j.Checkpoints[userID]
	if !ok {
		return nil, nil
	}
	at := entry.LastSyncAt
	return &at, nil
}

// SetCheckpoint records the user's last sync time and persists immediately.
func (j *Journal) SetCheckpoint(ctx context.Context, userID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.load(); err != nil {
		return err
	}
	j.Checkpoints[userID] = CheckpointEntry{
		UserID:     userID,
		LastSyncAt: at.UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	return j.save()
}
