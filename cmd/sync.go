package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/egecelikci/favorites/internal/formatter"
	"github.com/egecelikci/favorites/internal/imaging"
	"github.com/egecelikci/favorites/internal/shared"
	"github.com/egecelikci/favorites/internal/tasks"
)

// Sync runs one reconciliation pass and prints a summary.
//
// Item failures only change the exit status under --strict; they are retried on the next run anyway.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	repo, db, err := r.openHistory(config)
	if err != nil {
		r.logger.Warn("run history disabled", "err", err)
	}
	if db != nil {
		defer db.Close()
	}

	var history tasks.RunRecorder
	if repo != nil {
		history = repo
	}

	pipeline, err := r.pipeline(config, history, pipelineOverrides{
		gate:        cmd.String("gate"),
		single:      cmd.Bool("single"),
		concurrency: cmd.Int("concurrency"),
	})
	if err != nil {
		return err
	}

	r.logger.Info("starting sync", "account", config.Source.Account, "manifest", config.Paths.Manifest)

	var progressCh chan tasks.ProgressUpdate
	done := make(chan struct{})
	if cmd.Bool("quiet") {
		close(done)
	} else {
		progressCh = make(chan tasks.ProgressUpdate, 64)
		go func() {
			defer close(done)
			for update := range progressCh {
				r.printProgress(update)
			}
		}()
	}

	report, err := pipeline.Run(ctx, progressCh)
	if progressCh != nil {
		close(progressCh)
	}
	<-done

	if report == nil {
		return err
	}

	failures := make([]formatter.FailureLine, 0, len(report.Failures))
	for _, f := range report.Failures {
		failures = append(failures, formatter.FailureLine{ID: f.ID, Phase: f.Phase.String(), Err: f.Err})
	}
	r.writePlain("\n%s", formatter.FormatRunSummary(report.Record(err), report.ManifestPath, failures))

	if err != nil {
		return err
	}
	if cmd.Bool("strict") && (report.Partial() || report.ResolutionFailed) {
		return fmt.Errorf("%w: %d items", shared.ErrPartialRun, len(report.Failures))
	}
	return nil
}

func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.EnsureDirs, tasks.WriteManifest:
		r.writePlain("%s\n", update.Message)
	default:
		if update.Step == 0 {
			r.writePlain("\n%s\n", update.Message)
		} else {
			r.writePlain("  %s\n", update.Message)
		}
	}
}

// Resolve prints the favorite set in source order without writing anything but the HTTP cache.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	pipeline, err := r.pipeline(config, nil, pipelineOverrides{})
	if err != nil {
		return err
	}

	ids, err := pipeline.Resolve(ctx, nil)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if ids == nil {
			ids = []string{}
		}
		return r.writeJSON(ids, true)
	}

	if len(ids) == 0 {
		return r.writePlain("no favorites\n")
	}
	return r.writePlain("%s\n", strings.Join(ids, "\n"))
}

// Process derives cover variants from a local image file. Only the requested outputs are written.
func (r *Runner) Process(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.loadConfig(cmd); err != nil {
		return err
	}

	input := cmd.String("input")
	monoPath := cmd.String("mono")
	colorPath := cmd.String("color")

	var want imaging.Variant
	if monoPath != "" {
		want |= imaging.VariantMono
	}
	if colorPath != "" {
		want |= imaging.VariantColor
	}
	if want == 0 {
		return fmt.Errorf("%w: at least one of --mono or --color is required", shared.ErrMissingArgument)
	}

	processor := imaging.NewProcessor(r.logger)
	if err := processor.DeriveFile(input, monoPath, colorPath, want); err != nil {
		return err
	}

	if want.Has(imaging.VariantMono) {
		r.writePlain("✓ %s\n", monoPath)
	}
	if want.Has(imaging.VariantColor) {
		r.writePlain("✓ %s\n", colorPath)
	}
	return nil
}
