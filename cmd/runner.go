package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/egecelikci/favorites/internal/cache"
	"github.com/egecelikci/favorites/internal/fetch"
	"github.com/egecelikci/favorites/internal/imaging"
	"github.com/egecelikci/favorites/internal/repositories"
	"github.com/egecelikci/favorites/internal/services"
	"github.com/egecelikci/favorites/internal/shared"
	"github.com/egecelikci/favorites/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Config is loaded lazily on the first command so that --config and FAVORITES_* overrides apply.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	sleep      func(ctx context.Context, d time.Duration) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config // Skips loading from disk when set
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Sleep      func(ctx context.Context, d time.Duration) error // Courtesy delay and retry backoff; tests stub it
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		sleep:      opts.Sleep,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, resolveCommand, processCommand, cacheCommand, runsCommand, exportCommand, serveCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reads the config file named by --config, falling back to defaults when the default
// path does not exist, then applies environment overrides.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		r.applyVerbosity(cmd)
		return r.config, nil
	}

	path := cmd.String("config")
	config := shared.DefaultConfig()

	switch {
	case path != "" && shared.FileExists(path):
		loaded, err := shared.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	case cmd.IsSet("config"):
		return nil, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	default:
		r.logger.Debug("config file not found, using defaults", "path", path)
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	if level, err := log.ParseLevel(config.Log.Level); err == nil {
		shared.SetLogLevel(r.logger, level)
	} else {
		r.logger.Warn("unknown log level, keeping info", "level", config.Log.Level)
	}

	r.config = config
	r.applyVerbosity(cmd)
	return config, nil
}

func (r *Runner) applyVerbosity(cmd *cli.Command) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
}

// paths maps the configured roots onto pipeline paths.
func (r *Runner) paths(config *shared.Config) tasks.Paths {
	return tasks.Paths{
		CacheRoot:  config.Paths.CacheRoot,
		PublicRoot: config.Paths.PublicRoot,
		Manifest:   config.Paths.Manifest,
	}
}

// fetchClient builds the shared resilient client: one cache store, one rate limiter and the configured retry policy.
func (r *Runner) fetchClient(config *shared.Config) *fetch.Client {
	httpClient := r.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout()}
	}

	var limiter *rate.Limiter
	if rps := config.HTTP.RequestsPerSecond; rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	return fetch.NewClient(fetch.Options{
		HTTPClient: httpClient,
		Store:      cache.NewStore(config.Paths.CacheRoot),
		Logger:     r.logger,
		UserAgent:  config.HTTP.UserAgent,
		Limiter:    limiter,
		Retries:    config.HTTP.Retries,
		RetryDelay: config.RetryDelay(),
		NoFallback: !config.HTTP.GracefulFallback,
		Sleep:      r.sleep,
	})
}

// sources builds the review, metadata and cover sources over one client.
func (r *Runner) sources(config *shared.Config) (*services.CritiqueBrainzReviews, *services.MusicBrainzMetadata, *services.CoverArtArchive, error) {
	client := r.fetchClient(config)

	reviews, err := services.NewCritiqueBrainzReviews(config.Source.ReviewsURL, config.Source.Account, client)
	if err != nil {
		return nil, nil, nil, err
	}
	reviews.TTL = config.ReviewsTTL()

	return reviews,
		services.NewMusicBrainzMetadata(config.Source.MetadataURL, client),
		services.NewCoverArtArchive(config.Source.CoversURL, client),
		nil
}

// openHistory opens the run history database. A nil repository means history is disabled.
func (r *Runner) openHistory(config *shared.Config) (*repositories.RunRepository, *sql.DB, error) {
	if config.Database.Path == "" {
		return nil, nil, nil
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if config.Database.Path != ":memory:" {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	}

	return repositories.NewRunRepository(db), db, nil
}

// pipeline builds a [tasks.Pipeline] from config with optional per-command overrides.
func (r *Runner) pipeline(config *shared.Config, history tasks.RunRecorder, overrides pipelineOverrides) (*tasks.Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	reviews, metadata, covers, err := r.sources(config)
	if err != nil {
		return nil, err
	}

	gate := tasks.GatePolicy(config.Pipeline.Gate)
	if overrides.gate != "" {
		gate = tasks.GatePolicy(overrides.gate)
	}
	variants := tasks.VariantMode(config.Pipeline.Variants)
	if overrides.single {
		variants = tasks.VariantsSingle
	}
	concurrency := config.Pipeline.Concurrency
	if overrides.concurrency > 0 {
		concurrency = overrides.concurrency
	}

	opts := tasks.PipelineOpts{
		Paths:       r.paths(config),
		Reviews:     reviews,
		Metadata:    metadata,
		Covers:      covers,
		Processor:   imaging.NewProcessor(r.logger),
		History:     history,
		Logger:      r.logger,
		Delay:       config.Delay(),
		PageSize:    config.Source.PageSize,
		Concurrency: concurrency,
		Gate:        gate,
		Variants:    variants,
		Sleep:       r.sleep,
	}

	return tasks.NewPipeline(opts)
}

type pipelineOverrides struct {
	gate        string
	single      bool
	concurrency int
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
