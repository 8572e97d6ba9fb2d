package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bstardust/photosync/internal/hasher"
	"github.com/bstardust/photosync/internal/logger"
	"github.com/bstardust/photosync/internal/metadata"
	"github.com/bstardust/photosync/pkg/common"
	"github.com/bstardust/photosync/pkg/models"
)

// Mode selects how candidates are enumerated
type Mode string

const (
	// ModeScan syncs every library photo newer than the user's checkpoint
	// and advances the checkpoint afterwards.
	ModeScan Mode = "scan"
	// ModePick syncs an explicit selection and never touches the checkpoint.
	ModePick Mode = "pick"
)

// Library enumerates and reads device photos
type Library interface {
	ListSince(ctx context.Context, since *time.Time) ([]models.PhotoRef, error)
	ListPicked(ctx context.Context, ids []string) ([]models.PhotoRef, error)
	ReadBytes(ctx context.Context, ref models.PhotoRef) ([]byte, error)
}

// PhotoIndex answers which content hashes a user already has
type PhotoIndex interface {
	FindExistingHashes(ctx context.Context, userID string, hashes []string) (map[string]struct{}, error)
}

// PhotoUploader stores a photo and its record
type PhotoUploader interface {
	UploadPhoto(ctx context.Context, userID string, data []byte, meta models.PhotoMetadata) (models.UploadResult, error)
}

// CheckpointStore persists the last scan time per user
type CheckpointStore interface {
	GetCheckpoint(ctx context.Context, userID string) (*time.Time, error)
	SetCheckpoint(ctx context.Context, userID string, at time.Time) error
}

// LocationResolver turns coordinates into a place name
type LocationResolver interface {
	Resolve(ctx context.Context, lat, lon float64) (string, bool)
}

// Request describes one sync invocation
type Request struct {
	UserID    string
	Mode      Mode
	PickedIDs []string
	Progress  models.ProgressFunc
}

// Options configures a Coordinator
type Options struct {
	Extractor *metadata.Extractor
	// Resolver may be nil, in which case photos are uploaded without a
	// place name.
	Resolver LocationResolver
	Now      func() time.Time
}

// Coordinator runs sync batches against a library
type Coordinator struct {
	library     Library
	index       PhotoIndex
	uploader    PhotoUploader
	checkpoints CheckpointStore
	resolver    LocationResolver
	extractor   *metadata.Extractor
	now         func() time.Time
}

// New creates a new sync coordinator
func New(library Library, index PhotoIndex, uploader PhotoUploader, checkpoints CheckpointStore, opts Options) *Coordinator {
	if opts.Extractor == nil {
		opts.Extractor = metadata.NewExtractor(time.Local)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Coordinator{
		library:     library,
		index:       index,
		uploader:    uploader,
		checkpoints: checkpoints,
		resolver:    opts.Resolver,
		extractor:   opts.Extractor,
		now:         opts.Now,
	}
}

// Run executes one sync batch. Per-item failures are recorded in the summary
// and never abort the batch. The returned error is non-nil only for
// batch-fatal conditions, cancellation, or a failed checkpoint write; the
// summary holds every outcome reached so far in all three cases.
func (c *Coordinator) Run(ctx context.Context, req Request) (models.Summary, error) {
	if req.UserID == "" {
		return models.Summary{}, common.ErrNoUser
	}
	startedAt := c.now()

	refs, err := c.enumerate(ctx, req)
	if err != nil {
		return models.Summary{}, err
	}
	logger.Info("Found %d candidate photos (%s mode)", len(refs), req.Mode)

	candidates := make([]*models.SyncCandidate, len(refs))
	for i, ref := range refs {
		candidates[i] = &models.SyncCandidate{Ref: ref, Outcome: models.OutcomePending}
	}

	if err := c.hashAll(ctx, candidates, req.Progress); err != nil {
		return summarize(candidates), err
	}

	queue, err := c.dedupe(ctx, req.UserID, candidates)
	if err != nil {
		return summarize(candidates), err
	}

	attempted := false
	for i, cand := range queue {
		if err := ctx.Err(); err != nil {
			logger.Warn("Sync cancelled after %d/%d uploads", i, len(queue))
			return summarize(candidates), err
		}
		if c.uploadOne(ctx, req.UserID, cand) {
			attempted = true
		}
		emit(req.Progress, i+1, len(queue), models.PhaseUploading)
	}

	summary := summarize(candidates)
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	if req.Mode == ModeScan && attempted {
		if err := c.checkpoints.SetCheckpoint(ctx, req.UserID, startedAt); err != nil {
			return summary, fmt.Errorf("failed to advance checkpoint: %w", err)
		}
		logger.Debug("Checkpoint for %s advanced to %s", req.UserID, startedAt.Format(time.RFC3339))
	}

	return summary, nil
}

func (c *Coordinator) enumerate(ctx context.Context, req Request) ([]models.PhotoRef, error) {
	switch req.Mode {
	case ModeScan:
		since, err := c.checkpoints.GetCheckpoint(ctx, req.UserID)
		if err != nil {
			if errors.Is(err, common.ErrCheckpointUnavailable) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", common.ErrCheckpointUnavailable, err)
		}
		refs, err := c.library.ListSince(ctx, since)
		if err != nil {
			return nil, fmt.Errorf("failed to list photos: %w", err)
		}
		return refs, nil
	case ModePick:
		refs, err := c.library.ListPicked(ctx, req.PickedIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to list picked photos: %w", err)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("unknown sync mode %q", req.Mode)
	}
}

// hashAll reads every candidate once, hashing it and extracting metadata.
// A read failure leaves the hash empty so the item stays upload-eligible.
func (c *Coordinator) hashAll(ctx context.Context, candidates []*models.SyncCandidate, progress models.ProgressFunc) error {
	for i, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := c.library.ReadBytes(ctx, cand.Ref)
		if err != nil {
			logger.L().Warn().
				Err(common.NewItemError(common.StageHash, cand.Ref.Path, err)).
				Msg("Hashing failed, photo stays eligible for upload")
		} else {
			cand.ContentHash = hasher.HashBytes(data)
			meta := c.extractor.Extract(data, cand.Ref)
			cand.Metadata = &meta
		}

		emit(progress, i+1, len(candidates), models.PhaseHashing)
	}
	return nil
}

// dedupe marks candidates whose hash the user already has, or that repeat an
// earlier candidate's hash, as skipped and returns the rest in order.
func (c *Coordinator) dedupe(ctx context.Context, userID string, candidates []*models.SyncCandidate) ([]*models.SyncCandidate, error) {
	var hashes []string
	unique := make(map[string]struct{})
	for _, cand := range candidates {
		if cand.ContentHash == "" {
			continue
		}
		if _, ok := unique[cand.ContentHash]; !ok {
			unique[cand.ContentHash] = struct{}{}
			hashes = append(hashes, cand.ContentHash)
		}
	}

	existing := map[string]struct{}{}
	if len(hashes) > 0 {
		found, err := c.index.FindExistingHashes(ctx, userID, hashes)
		if err != nil {
			return nil, fmt.Errorf("failed to check for duplicates: %w", err)
		}
		if found != nil {
			existing = found
		}
	}

	queue := make([]*models.SyncCandidate, 0, len(candidates))
	seen := make(map[string]struct{}, len(hashes))
	for _, cand := range candidates {
		if cand.ContentHash != "" {
			if _, ok := existing[cand.ContentHash]; ok {
				c.finish(cand, models.OutcomeSkipped, "", nil)
				continue
			}
			if _, ok := seen[cand.ContentHash]; ok {
				c.finish(cand, models.OutcomeSkipped, "", nil)
				continue
			}
			seen[cand.ContentHash] = struct{}{}
		}
		cand.Selected = true
		queue = append(queue, cand)
	}

	logger.Info("Checked duplicates: %d to upload, %d already synced", len(queue), len(candidates)-len(queue))
	return queue, nil
}

// uploadOne processes one queued candidate and reports whether the upload
// collaborator was called.
func (c *Coordinator) uploadOne(ctx context.Context, userID string, cand *models.SyncCandidate) bool {
	data, err := c.library.ReadBytes(ctx, cand.Ref)
	if err != nil {
		c.finish(cand, models.OutcomeFailed, "", common.NewItemError(common.StageRead, cand.Ref.Path, err))
		return false
	}

	if cand.Metadata == nil {
		meta := c.extractor.Extract(data, cand.Ref)
		cand.Metadata = &meta
	}
	if cand.ContentHash == "" {
		cand.ContentHash = hasher.HashBytes(data)
	}

	meta := *cand.Metadata
	meta.ContentHash = cand.ContentHash
	meta.Location = c.location(ctx, cand)

	result, err := c.uploader.UploadPhoto(ctx, userID, data, meta)
	switch {
	case errors.Is(err, common.ErrDuplicatePhoto):
		c.finish(cand, models.OutcomeSkipped, "", nil)
	case err != nil:
		c.finish(cand, models.OutcomeFailed, "", common.NewItemError(common.StageUpload, cand.Ref.Path, err))
	default:
		c.finish(cand, models.OutcomeUploaded, result.URL, nil)
	}
	return true
}

func (c *Coordinator) location(ctx context.Context, cand *models.SyncCandidate) string {
	if cand.ResolvedLocation != "" || c.resolver == nil || cand.Metadata.GPS == nil {
		return cand.ResolvedLocation
	}
	gps := cand.Metadata.GPS
	if name, ok := c.resolver.Resolve(ctx, gps.Latitude, gps.Longitude); ok {
		cand.ResolvedLocation = name
	}
	return cand.ResolvedLocation
}

func (c *Coordinator) finish(cand *models.SyncCandidate, outcome models.Outcome, url string, err error) {
	cand.Outcome = outcome
	cand.URL = url
	cand.Err = err

	event := logger.L().Info()
	if err != nil {
		event = logger.L().Error().Err(err)
	}
	event.
		Str("path", cand.Ref.Path).
		Str("outcome", string(outcome)).
		Str("hash", cand.ContentHash).
		Str("url", url).
		Msg("Photo processed")
}

func summarize(candidates []*models.SyncCandidate) models.Summary {
	var summary models.Summary
	for _, cand := range candidates {
		if cand.Outcome == models.OutcomePending {
			continue
		}
		summary.Add(models.ItemResult{
			Ref:     cand.Ref,
			Outcome: cand.Outcome,
			URL:     cand.URL,
			Err:     cand.Err,
		})
	}
	return summary
}

func emit(progress models.ProgressFunc, current, total int, phase models.Phase) {
	if progress != nil {
		progress(models.Progress{Current: current, Total: total, Phase: phase})
	}
}
