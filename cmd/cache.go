package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/egecelikci/favorites/internal/cache"
	"github.com/egecelikci/favorites/internal/shared"
)

// CacheStat prints entry counts and sizes for each cache section.
func (r *Runner) CacheStat(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	store := cache.NewStore(config.Paths.CacheRoot)
	sections, err := store.Stat()
	if err != nil {
		return err
	}

	r.writePlain("%s\n\n", store.Root())
	r.writePlain("%-10s %8s %12s\n", "SECTION", "ENTRIES", "SIZE")
	for _, s := range sections {
		r.writePlain("%-10s %8d %12s\n", s.Name, s.Entries, humanBytes(s.Bytes))
	}
	return nil
}

// CachePath prints the cache root, or every file belonging to the favorite given as the first argument.
func (r *Runner) CachePath(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	id := cmd.Args().First()
	if id == "" {
		return r.writePlain("%s\n", config.Paths.CacheRoot)
	}

	store := cache.NewStore(config.Paths.CacheRoot)
	paths := r.paths(config)
	entries := []struct {
		name string
		path string
	}{
		{"metadata", store.Path(cache.MetadataKey(id))},
		{"cover", store.Path(cache.CoverKey(id))},
		{"monochrome", paths.MonoPath(id)},
		{"colored", paths.ColorPath(id)},
	}

	for _, e := range entries {
		state := "present"
		if !shared.FileExists(e.path) {
			state = "missing"
		}
		if err := r.writePlain("%-10s %-7s %s\n", e.name, state, e.path); err != nil {
			return err
		}
	}
	return nil
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
