package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/egecelikci/favorites/internal/models"
	"github.com/egecelikci/favorites/internal/shared"
)

// ErrRunNotFound is returned when no live run matches the given ID.
var ErrRunNotFound = errors.New("run not found")

// DefaultListLimit caps [RunRepository.List] when no "limit" criterion is given.
const DefaultListLimit = 20

const runColumns = `
	id, sequence, status, favorites, metadata_fetched, covers_fetched,
	images_processed, albums, failures, error_message, started_at,
	finished_at, deleted_at
`

// RunRepository implements models.Repository[*models.RunRecord] for pipeline run history.
type RunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.RunRecord] = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run, generating an ID when the record has none and assigning the next sequence.
func (r *RunRepository) Create(run *models.RunRecord) error {
	if run.ID() == "" {
		run.SetID(shared.GenerateID())
	}

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	query := `INSERT INTO runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`

	_, err = r.db.Exec(query,
		run.ID(),
		sequence,
		string(run.Status),
		run.Favorites,
		run.MetadataFetched,
		run.CoversFetched,
		run.ImagesProcessed,
		run.Albums,
		run.Failures,
		nullString(run.Error),
		run.StartedAt,
		nullTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	run.Sequence = sequence
	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id))
}

// Update writes the run's status, counters and finish time.
func (r *RunRepository) Update(run *models.RunRecord) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE runs
		SET status = ?, favorites = ?, metadata_fetched = ?, covers_fetched = ?,
			images_processed = ?, albums = ?, failures = ?, error_message = ?,
			finished_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		string(run.Status),
		run.Favorites,
		run.MetadataFetched,
		run.CoversFetched,
		run.ImagesProcessed,
		run.Albums,
		run.Failures,
		nullString(run.Error),
		nullTime(run.FinishedAt),
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return requireRow(result, run.ID())
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	query := `UPDATE runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	return requireRow(result, id)
}

// List retrieves runs newest first, excluding soft-deleted runs.
//
// Supported criteria: "status" (string or [models.RunStatus]) and "limit" (int, defaults to [DefaultListLimit]).
func (r *RunRepository) List(criteria map[string]any) ([]*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE deleted_at IS NULL`
	args := []any{}

	switch status := criteria["status"].(type) {
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	case models.RunStatus:
		if status != "" {
			query += " AND status = ?"
			args = append(args, string(status))
		}
	}

	limit := DefaultListLimit
	if n, ok := criteria["limit"].(int); ok && n > 0 {
		limit = n
	}

	query += " ORDER BY sequence DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.RunRecord
	for rows.Next() {
		run, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

func (r *RunRepository) scan(row scanner) (*models.RunRecord, error) {
	var (
		id           string
		sequence     int
		status       string
		errorMessage sql.NullString
		startedAt    time.Time
		finishedAt   sql.NullTime
		deletedAt    sql.NullTime
		run          models.RunRecord
	)

	err := row.Scan(
		&id, &sequence, &status, &run.Favorites, &run.MetadataFetched, &run.CoversFetched,
		&run.ImagesProcessed, &run.Albums, &run.Failures, &errorMessage, &startedAt,
		&finishedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.SetID(id)
	run.Sequence = sequence
	run.Status = models.RunStatus(status)
	run.StartedAt = startedAt
	if errorMessage.Valid {
		run.Error = errorMessage.String
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	if deletedAt.Valid {
		run.DeletedAt = &deletedAt.Time
	}

	return &run, nil
}

func requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
