package tasks

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/egecelikci/favorites/internal/models"
)

// ItemFailure is a per-favorite failure. Failed items are retried on the next run.
type ItemFailure struct {
	ID    string
	Phase Phase
	Err   error
}

// RunReport summarizes one pipeline run.
type RunReport struct {
	RunID            string
	StartedAt        time.Time
	FinishedAt       time.Time
	Favorites        int // Size of the resolved favorite set
	MetadataFetched  int
	CoversFetched    int
	ImagesProcessed  int
	Albums           int // Entries written to the manifest
	Failures         []ItemFailure
	ResolutionFailed bool // The first review page failed and the run did nothing
	ManifestPath     string

	mu sync.Mutex
}

// Partial reports whether any item failed.
func (r *RunReport) Partial() bool {
	return len(r.Failures) > 0
}

// FailuresIn returns the failures recorded for phase.
func (r *RunReport) FailuresIn(phase Phase) []ItemFailure {
	var out []ItemFailure
	for _, f := range r.Failures {
		if f.Phase == phase {
			out = append(out, f)
		}
	}
	return out
}

// Status maps the report onto a run history status.
func (r *RunReport) Status(err error) models.RunStatus {
	switch {
	case err != nil:
		return models.RunFailed
	case r.ResolutionFailed:
		return models.RunNoop
	case r.Partial():
		return models.RunPartial
	default:
		return models.RunSucceeded
	}
}

// Record converts the report into a run history entry.
func (r *RunReport) Record(err error) *models.RunRecord {
	rec := models.NewRunRecord(r.RunID, r.StartedAt)
	rec.Favorites = r.Favorites
	rec.MetadataFetched = r.MetadataFetched
	rec.CoversFetched = r.CoversFetched
	rec.ImagesProcessed = r.ImagesProcessed
	rec.Albums = r.Albums
	rec.Failures = len(r.Failures)

	if !r.FinishedAt.IsZero() {
		msg := ""
		if err != nil {
			msg = err.Error()
		}
		rec.Finish(r.Status(err), msg, r.FinishedAt)
	}
	return rec
}

func (r *RunReport) fail(id string, phase Phase, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failures = append(r.Failures, ItemFailure{ID: id, Phase: phase, Err: err})
}

func (r *RunReport) processed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ImagesProcessed++
}

// sortFailures orders failures by phase, then id, so reports do not depend on goroutine scheduling.
func (r *RunReport) sortFailures() {
	sort.SliceStable(r.Failures, func(i, j int) bool {
		if r.Failures[i].Phase != r.Failures[j].Phase {
			return r.Failures[i].Phase < r.Failures[j].Phase
		}
		return r.Failures[i].ID < r.Failures[j].ID
	})
}

// Err joins the item failures, or returns nil for a clean run.
func (r *RunReport) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}
