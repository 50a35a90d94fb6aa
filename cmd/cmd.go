// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "favorites",
		Usage:    "Sync 5-star album reviews into a manifest with processed cover art",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Commands: r.register(),
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

// syncCommand runs the reconciliation pipeline.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Fetch favorites, cache metadata and covers, process images and write the manifest",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Exit non-zero when any item failed",
			},
			&cli.StringFlag{
				Name:  "gate",
				Usage: "Manifest gate: color or both",
			},
			&cli.BoolFlag{
				Name:  "single",
				Usage: "Derive only the colored variant",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Image processing workers (overrides config)",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress progress output",
			},
		},
		Action: r.Sync,
	}
}

// resolveCommand prints the favorite set without touching the cache or manifest.
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "List favorite release group IDs",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output a JSON array",
			},
		},
		Action: r.Resolve,
	}
}

// processCommand derives cover variants from a local image.
func processCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "process",
		Usage: "Derive monochrome and colored covers from an image file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Source image (jpeg, png, gif or webp)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "mono",
				Usage: "Output path for the 1-bit dithered variant",
			},
			&cli.StringFlag{
				Name:  "color",
				Usage: "Output path for the palette-quantized variant",
			},
		},
		Action: r.Process,
	}
}

// cacheCommand inspects the on-disk cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the local cache",
		Commands: []*cli.Command{
			{
				Name:   "stat",
				Usage:  "Count cached entries per section",
				Action: r.CacheStat,
			},
			{
				Name:      "path",
				Usage:     "Print the cache root, or the cached and derived files of one favorite",
				ArgsUsage: "[id]",
				Action:    r.CachePath,
			},
		},
	}
}

// runsCommand reads the run history.
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Run history",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent runs, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only show runs with this status",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RunsList,
			},
		},
	}
}

// exportCommand renders the manifest in another format.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the manifest as json, csv, markdown or text",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format",
				Value:   "markdown",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (defaults to stdout)",
			},
		},
		Action: r.Export,
	}
}

// setupCommand creates the config file and the history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the run history database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// serveCommand starts the read-only preview server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the manifest, covers and run history over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides server.host and server.port)",
			},
		},
		Action: r.Serve,
	}
}
