package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/egecelikci/favorites/internal/models"
	"github.com/egecelikci/favorites/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func newRun(t *testing.T, repo *RunRepository, startedAt time.Time) *models.RunRecord {
	t.Helper()

	run := models.NewRunRecord("", startedAt)
	if err := repo.Create(run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	return run
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "runs")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for table without a sequence")
	}
}

func TestRunRepository(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Create", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		run := newRun(t, repo, start)
		if run.ID() == "" {
			t.Error("run ID should be set after creation")
		}
		if run.Sequence != 1 {
			t.Errorf("expected sequence 1, got %d", run.Sequence)
		}

		second := newRun(t, repo, start.Add(time.Minute))
		if second.Sequence != 2 {
			t.Errorf("expected sequence 2, got %d", second.Sequence)
		}
	})

	t.Run("Create Keeps Given ID", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		run := models.NewRunRecord("run-fixed", start)
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		got, err := repo.Get("run-fixed")
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Status != models.RunRunning {
			t.Errorf("expected running, got %s", got.Status)
		}
		if !got.StartedAt.Equal(start) {
			t.Errorf("expected start %v, got %v", start, got.StartedAt)
		}
		if got.FinishedAt != nil {
			t.Error("running run should not have a finish time")
		}
	})

	t.Run("Create Invalid", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		run := models.NewRunRecord("run-bad", time.Time{})
		if err := repo.Create(run); err == nil {
			t.Error("expected validation error for zero start time")
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := newRun(t, repo, start)

		run.Favorites = 3
		run.MetadataFetched = 2
		run.CoversFetched = 2
		run.ImagesProcessed = 2
		run.Albums = 2
		run.Failures = 1
		run.Finish(models.RunPartial, "1 item failed", start.Add(90*time.Second))

		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Status != models.RunPartial {
			t.Errorf("expected partial, got %s", got.Status)
		}
		if got.Favorites != 3 || got.Albums != 2 || got.Failures != 1 {
			t.Errorf("unexpected counters: %+v", got)
		}
		if got.Error != "1 item failed" {
			t.Errorf("expected error message, got %q", got.Error)
		}
		if got.Duration() != 90*time.Second {
			t.Errorf("expected duration 90s, got %v", got.Duration())
		}
		if got.Sequence != run.Sequence {
			t.Errorf("sequence changed on update: %d -> %d", run.Sequence, got.Sequence)
		}
	})

	t.Run("Update Missing", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		run := models.NewRunRecord("nope", start)
		if err := repo.Update(run); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := newRun(t, repo, start)

		if err := repo.Delete(run.ID()); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}

		if _, err := repo.Get(run.ID()); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound after delete, got %v", err)
		}
		if err := repo.Delete(run.ID()); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("deleting twice should fail, got %v", err)
		}
		if err := repo.Update(run); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("updating a deleted run should fail, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		var ids []string
		for i := range 5 {
			run := newRun(t, repo, start.Add(time.Duration(i)*time.Hour))
			status := models.RunSucceeded
			if i%2 == 1 {
				status = models.RunPartial
			}
			run.Finish(status, "", run.StartedAt.Add(time.Minute))
			if err := repo.Update(run); err != nil {
				t.Fatalf("failed to update run: %v", err)
			}
			ids = append(ids, run.ID())
		}

		tests := []struct {
			name     string
			criteria map[string]any
			want     []string
		}{
			{name: "all newest first", criteria: nil, want: []string{ids[4], ids[3], ids[2], ids[1], ids[0]}},
			{name: "limit", criteria: map[string]any{"limit": 2}, want: []string{ids[4], ids[3]}},
			{name: "status string", criteria: map[string]any{"status": "partial"}, want: []string{ids[3], ids[1]}},
			{name: "status typed", criteria: map[string]any{"status": models.RunSucceeded, "limit": 1}, want: []string{ids[4]}},
			{name: "no match", criteria: map[string]any{"status": "noop"}, want: nil},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				runs, err := repo.List(tt.criteria)
				if err != nil {
					t.Fatalf("failed to list runs: %v", err)
				}
				if len(runs) != len(tt.want) {
					t.Fatalf("expected %d runs, got %d", len(tt.want), len(runs))
				}
				for i, run := range runs {
					if run.ID() != tt.want[i] {
						t.Errorf("run %d: expected %s, got %s", i, tt.want[i], run.ID())
					}
				}
			})
		}
	})

	t.Run("List Excludes Deleted", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		kept := newRun(t, repo, start)
		gone := newRun(t, repo, start.Add(time.Hour))

		if err := repo.Delete(gone.ID()); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}

		runs, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 1 || runs[0].ID() != kept.ID() {
			t.Errorf("expected only %s, got %d runs", kept.ID(), len(runs))
		}
	})

	t.Run("List Default Limit", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		for i := range DefaultListLimit + 3 {
			newRun(t, repo, start.Add(time.Duration(i)*time.Second))
		}

		runs, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != DefaultListLimit {
			t.Errorf("expected %d runs, got %d", DefaultListLimit, len(runs))
		}
	})

	t.Run("Concurrent Creates Get Unique Sequences", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			seen = map[int]bool{}
			errs []error
		)
		for i := range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				run := models.NewRunRecord(fmt.Sprintf("run-%d", i), start)
				err := repo.Create(run)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
					return
				}
				seen[run.Sequence] = true
			}()
		}
		wg.Wait()

		if len(errs) > 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if len(seen) != 10 {
			t.Errorf("expected 10 unique sequences, got %d", len(seen))
		}
	})
}
