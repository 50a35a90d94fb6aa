package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/egecelikci/favorites/internal/formatter"
	"github.com/egecelikci/favorites/internal/shared"
)

// Export renders the current manifest in the requested format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	manifest, err := formatter.ReadManifest(config.Paths.Manifest)
	if err != nil {
		return err
	}

	format := formatter.Format(cmd.String("format"))
	output := cmd.String("output")

	var data []byte
	if format == formatter.FormatMarkdown {
		coverDir := r.paths(config).ColorDir()
		if output != "" {
			if rel, err := filepath.Rel(filepath.Dir(output), coverDir); err == nil {
				coverDir = rel
			}
		}
		data, err = formatter.ExportToMarkdown(manifest, coverDir)
	} else {
		data, err = formatter.Export(manifest, format)
	}
	if err != nil {
		return err
	}

	if output == "" {
		_, err := r.output.Write(data)
		return err
	}

	if err := shared.WriteFileAtomic(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	r.logger.Info("exported manifest", "format", format, "albums", len(manifest.Albums), "path", output)
	return nil
}
