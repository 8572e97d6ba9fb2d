package progress

import (
	"sync"
	"time"

	"github.com/bstardust/photosync/internal/logger"
	"github.com/bstardust/photosync/pkg/models"
)

// Reporter tracks and reports sync progress
type Reporter struct {
	mu             sync.Mutex
	last           models.Progress
	startTime      time.Time
	phaseStart     time.Time
	lastUpdateTime time.Time
	updateInterval time.Duration
	now            func() time.Time
}

// New creates a new progress reporter
func New() *Reporter {
	return &Reporter{
		updateInterval: 2 * time.Second,
		now:            time.Now,
	}
}

// Start resets the reporter for a new sync run
func (r *Reporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.startTime = r.now()
	r.phaseStart = r.startTime
	r.lastUpdateTime = time.Time{}
	r.last = models.Progress{}
}

// Observe consumes one coordinator progress event. It matches
// models.ProgressFunc.
func (r *Reporter) Observe(p models.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.startTime.IsZero() {
		r.startTime = now
	}
	if p.Phase != r.last.Phase {
		r.phaseStart = now
		r.lastUpdateTime = time.Time{}
		logger.Info("%s %d photos", phaseLabel(p.Phase), p.Total)
	}
	r.last = p

	final := p.Current == p.Total
	if !final && now.Sub(r.lastUpdateTime) < r.updateInterval {
		return
	}
	r.lastUpdateTime = now

	logger.L().Info().
		Str("phase", string(p.Phase)).
		Int("current", p.Current).
		Int("total", p.Total).
		Str("eta", r.eta(now, p)).
		Msgf("%s %d/%d", phaseLabel(p.Phase), p.Current, p.Total)
}

// Finish logs the final summary of a sync run
func (r *Reporter) Finish(summary models.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var duration time.Duration
	if !r.startTime.IsZero() {
		duration = r.now().Sub(r.startTime)
	}

	logger.L().Info().
		Int("uploaded", summary.Uploaded).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Int("total", summary.Total()).
		Dur("duration", duration.Round(time.Millisecond)).
		Msgf("Sync complete: %s", summary)
}

func (r *Reporter) eta(now time.Time, p models.Progress) string {
	if p.Current == 0 || p.Total <= p.Current {
		return "0s"
	}
	perItem := now.Sub(r.phaseStart) / time.Duration(p.Current)
	return (perItem * time.Duration(p.Total-p.Current)).Round(time.Second).String()
}

func phaseLabel(phase models.Phase) string {
	switch phase {
	case models.PhaseHashing:
		return "Checking duplicates"
	case models.PhaseUploading:
		return "Uploading"
	default:
		return string(phase)
	}
}
