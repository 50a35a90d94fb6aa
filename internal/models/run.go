package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// RunStatus is the outcome of a pipeline run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunPartial   RunStatus = "partial" // Completed with per-item failures
	RunNoop      RunStatus = "noop"    // Favorites could not be resolved
	RunFailed    RunStatus = "failed"
)

// Valid reports whether s is a known status.
func (s RunStatus) Valid() bool {
	switch s {
	case RunRunning, RunSucceeded, RunPartial, RunNoop, RunFailed:
		return true
	}
	return false
}

// RunRecord is one row of the run history.
type RunRecord struct {
	id              string
	Sequence        int // Assigned on insert
	Status          RunStatus
	Favorites       int
	MetadataFetched int
	CoversFetched   int
	ImagesProcessed int
	Albums          int
	Failures        int
	Error           string
	StartedAt       time.Time
	FinishedAt      *time.Time
	DeletedAt       *time.Time
}

// NewRunRecord creates a running RunRecord started at the given time.
func NewRunRecord(id string, startedAt time.Time) *RunRecord {
	return &RunRecord{id: id, Status: RunRunning, StartedAt: startedAt}
}

func (r *RunRecord) ID() string           { return r.id }
func (r *RunRecord) SetID(id string)      { r.id = id }
func (r *RunRecord) CreatedAt() time.Time { return r.StartedAt }

func (r *RunRecord) UpdatedAt() time.Time {
	if r.FinishedAt != nil {
		return *r.FinishedAt
	}
	return r.StartedAt
}

// Finish marks the run complete with status and an optional error message.
func (r *RunRecord) Finish(status RunStatus, errMsg string, at time.Time) {
	r.Status = status
	r.Error = errMsg
	r.FinishedAt = &at
}

// Duration returns how long the run took, or zero while it is still running.
func (r *RunRecord) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *RunRecord) Validate() error {
	if r.id == "" {
		return fmt.Errorf("run id is required")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("invalid run status: %q", r.Status)
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("run start time is required")
	}
	return nil
}

type runJSON struct {
	ID              string     `json:"id"`
	Sequence        int        `json:"sequence,omitempty"`
	Status          RunStatus  `json:"status"`
	Favorites       int        `json:"favorites"`
	MetadataFetched int        `json:"metadata_fetched"`
	CoversFetched   int        `json:"covers_fetched"`
	ImagesProcessed int        `json:"images_processed"`
	Albums          int        `json:"albums"`
	Failures        int        `json:"failures"`
	Error           string     `json:"error,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
}

// MarshalJSON encodes the run for the CLI and the preview server. Deletion state is not exposed.
func (r *RunRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(runJSON{
		ID:              r.id,
		Sequence:        r.Sequence,
		Status:          r.Status,
		Favorites:       r.Favorites,
		MetadataFetched: r.MetadataFetched,
		CoversFetched:   r.CoversFetched,
		ImagesProcessed: r.ImagesProcessed,
		Albums:          r.Albums,
		Failures:        r.Failures,
		Error:           r.Error,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
	})
}

// UnmarshalJSON decodes the form written by [RunRecord.MarshalJSON].
func (r *RunRecord) UnmarshalJSON(data []byte) error {
	var v runJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = RunRecord{
		id:              v.ID,
		Sequence:        v.Sequence,
		Status:          v.Status,
		Favorites:       v.Favorites,
		MetadataFetched: v.MetadataFetched,
		CoversFetched:   v.CoversFetched,
		ImagesProcessed: v.ImagesProcessed,
		Albums:          v.Albums,
		Failures:        v.Failures,
		Error:           v.Error,
		StartedAt:       v.StartedAt,
		FinishedAt:      v.FinishedAt,
	}
	return nil
}
