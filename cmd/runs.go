package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/egecelikci/favorites/internal/formatter"
	"github.com/egecelikci/favorites/internal/models"
	"github.com/egecelikci/favorites/internal/shared"
)

// RunsList prints recent runs from the history database.
func (r *Runner) RunsList(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if config.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty, run history is disabled", shared.ErrInvalidConfig)
	}

	status := cmd.String("status")
	if status != "" && !models.RunStatus(status).Valid() {
		return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, status)
	}

	repo, db, err := r.openHistory(config)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repo.List(map[string]any{"status": status, "limit": cmd.Int("limit")})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if runs == nil {
			runs = []*models.RunRecord{}
		}
		return r.writeJSON(runs, true)
	}
	return r.writePlain("%s", formatter.FormatRuns(runs))
}
