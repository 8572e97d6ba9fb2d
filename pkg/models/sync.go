package models

import "fmt"

// Outcome is the final state of one sync candidate.
type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeUploaded Outcome = "uploaded"
	OutcomeSkipped  Outcome = "skipped-duplicate"
	OutcomeFailed   Outcome = "failed"
)

// SyncCandidate is the transient per-photo state of one sync run.
type SyncCandidate struct {
	Ref              PhotoRef
	ContentHash      string
	Metadata         *PhotoMetadata
	ResolvedLocation string
	Selected         bool
	Outcome          Outcome
	URL              string
	Err              error
}

// Phase names a progress-reporting stage of a sync run.
type Phase string

const (
	PhaseHashing   Phase = "hashing"
	PhaseUploading Phase = "uploading"
)

// Progress is emitted after every item of the hashing and uploading phases.
type Progress struct {
	Current int
	Total   int
	Phase   Phase
}

// ProgressFunc receives progress events.
type ProgressFunc func(Progress)

// ItemResult is the reported outcome of one candidate.
type ItemResult struct {
	Ref     PhotoRef
	Outcome Outcome
	URL     string
	Err     error
}

// Summary aggregates the outcome of a sync run.
type Summary struct {
	Uploaded int
	Skipped  int
	Failed   int
	Items    []ItemResult
}

// Add records one item result and updates the counters.
func (s *Summary) Add(item ItemResult) {
	switch item.Outcome {
	case OutcomeUploaded:
		s.Uploaded++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
	s.Items = append(s.Items, item)
}

// Total is the number of items with a final outcome.
func (s Summary) Total() int {
	return s.Uploaded + s.Skipped + s.Failed
}

func (s Summary) String() string {
	return fmt.Sprintf("%d uploaded, %d duplicates skipped, %d failed", s.Uploaded, s.Skipped, s.Failed)
}
