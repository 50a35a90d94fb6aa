// package tasks implements the favorites reconciliation pipeline.
//
// The core abstraction is Pipeline, which reconciles the remote favorite set against the local caches and writes the manifest.
// Runs emit progress updates via channels for non-blocking status reporting to the CLI layer.
package tasks

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/egecelikci/favorites/internal/cache"
	"github.com/egecelikci/favorites/internal/imaging"
	"github.com/egecelikci/favorites/internal/models"
	"github.com/egecelikci/favorites/internal/services"
	"github.com/egecelikci/favorites/internal/shared"
)

const (
	DefaultPageSize    = 50
	DefaultConcurrency = 8
	DefaultDelay       = time.Second

	// maxReviewPages bounds pagination against a source that never returns an empty page.
	maxReviewPages = 1000
)

// GatePolicy decides which processed covers an item needs to enter the manifest.
type GatePolicy string

const (
	GateColor GatePolicy = "color" // Metadata and the color cover
	GateBoth  GatePolicy = "both"  // Metadata and both covers
)

// VariantMode selects which cover variants are produced.
type VariantMode string

const (
	VariantsDual   VariantMode = "dual"
	VariantsSingle VariantMode = "single" // Color only
)

// Paths locates the on-disk state of a run.
type Paths struct {
	CacheRoot  string // Metadata documents and raw covers
	PublicRoot string // Processed covers
	Manifest   string // Manifest file
}

func (p Paths) MonoDir() string  { return filepath.Join(p.PublicRoot, "covers", "monochrome") }
func (p Paths) ColorDir() string { return filepath.Join(p.PublicRoot, "covers", "colored") }

// MonoPath returns the monochrome cover path of id.
func (p Paths) MonoPath(id string) string { return filepath.Join(p.MonoDir(), id+".png") }

// ColorPath returns the colored cover path of id.
func (p Paths) ColorPath(id string) string { return filepath.Join(p.ColorDir(), id+".png") }

// LockPath returns the path of the single-writer lock file.
func (p Paths) LockPath() string { return filepath.Join(p.CacheRoot, ".favorites.lock") }

// ImageProcessor derives processed cover variants from a raw cover buffer.
type ImageProcessor interface {
	Derive(src []byte, monoPath, colorPath string, want imaging.Variant) error
}

// RunRecorder persists run history. Implemented by repositories.RunRepository.
type RunRecorder interface {
	Create(run *models.RunRecord) error
	Update(run *models.RunRecord) error
}

// PipelineOpts configures a [Pipeline]. Reviews, Metadata, Covers and Processor are required.
type PipelineOpts struct {
	Paths       Paths
	Reviews     services.ReviewSource
	Metadata    services.MetadataSource
	Covers      services.CoverSource
	Processor   ImageProcessor
	History     RunRecorder // Optional
	Logger      *log.Logger
	Delay       time.Duration // Courtesy delay after every networked fetch in the serial phases; zero disables it
	PageSize    int
	Concurrency int
	Gate        GatePolicy
	Variants    VariantMode
	Sleep       func(context.Context, time.Duration) error
	Now         func() time.Time
}

// Pipeline is the per-run context of the reconciliation job.
type Pipeline struct {
	paths       Paths
	store       *cache.Store
	reviews     services.ReviewSource
	metadata    services.MetadataSource
	covers      services.CoverSource
	processor   ImageProcessor
	history     RunRecorder
	logger      *log.Logger
	delay       time.Duration
	pageSize    int
	concurrency int
	gate        GatePolicy
	variants    VariantMode
	sleep       func(context.Context, time.Duration) error
	now         func() time.Time
}

// NewPipeline validates opts and creates a Pipeline.
func NewPipeline(opts PipelineOpts) (*Pipeline, error) {
	if opts.Reviews == nil || opts.Metadata == nil || opts.Covers == nil {
		return nil, fmt.Errorf("%w: review, metadata and cover sources are required", shared.ErrServiceUnavailable)
	}
	if opts.Processor == nil {
		return nil, fmt.Errorf("%w: image processor is required", shared.ErrServiceUnavailable)
	}
	if opts.Paths.CacheRoot == "" || opts.Paths.PublicRoot == "" || opts.Paths.Manifest == "" {
		return nil, fmt.Errorf("%w: cache, public and manifest paths are required", shared.ErrInvalidConfig)
	}

	if opts.Gate == "" {
		opts.Gate = GateColor
	}
	if opts.Variants == "" {
		opts.Variants = VariantsDual
	}
	switch opts.Gate {
	case GateColor, GateBoth:
	default:
		return nil, fmt.Errorf("%w: unknown gate policy %q", shared.ErrInvalidConfig, opts.Gate)
	}
	switch opts.Variants {
	case VariantsDual, VariantsSingle:
	default:
		return nil, fmt.Errorf("%w: unknown variant mode %q", shared.ErrInvalidConfig, opts.Variants)
	}
	if opts.Gate == GateBoth && opts.Variants == VariantsSingle {
		return nil, fmt.Errorf("%w: gate %q needs monochrome covers", shared.ErrInvalidConfig, opts.Gate)
	}

	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Sleep == nil {
		opts.Sleep = shared.Sleep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Pipeline{
		paths:       opts.Paths,
		store:       cache.NewStore(opts.Paths.CacheRoot),
		reviews:     opts.Reviews,
		metadata:    opts.Metadata,
		covers:      opts.Covers,
		processor:   opts.Processor,
		history:     opts.History,
		logger:      opts.Logger,
		delay:       opts.Delay,
		pageSize:    opts.PageSize,
		concurrency: opts.Concurrency,
		gate:        opts.Gate,
		variants:    opts.Variants,
		sleep:       opts.Sleep,
		now:         opts.Now,
	}, nil
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (p *Pipeline) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

func (p *Pipeline) phaseLogger(phase Phase) *log.Logger {
	return shared.WithLogger(p.logger, "phase", phase.String())
}

// Run performs one reconciliation pass.
//
// Per-item failures are logged and collected in the report; they never abort the run.
// When the favorites source is unreachable on the first page the run returns early with
// [RunReport.ResolutionFailed] set and the existing manifest untouched.
// The returned error is reserved for run-level failures: the lock, directories, cancellation and the manifest write.
func (p *Pipeline) Run(ctx context.Context, progress chan<- ProgressUpdate) (*RunReport, error) {
	lock, err := acquireLock(p.paths.LockPath())
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	report := &RunReport{
		RunID:        shared.GenerateID(),
		StartedAt:    p.now(),
		ManifestPath: p.paths.Manifest,
	}
	p.recordStart(report)

	err = p.run(ctx, progress, report)

	report.FinishedAt = p.now()
	report.sortFailures()
	p.recordFinish(report, err)

	return report, err
}

func (p *Pipeline) run(ctx context.Context, progress chan<- ProgressUpdate, report *RunReport) error {
	if err := p.ensureDirs(progress); err != nil {
		return err
	}

	ids, err := p.Resolve(ctx, progress)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		report.ResolutionFailed = true
		p.phaseLogger(ResolveFavorites).Warn("favorites source unreachable, nothing to do", "err", err)
		return nil
	}
	report.Favorites = len(ids)

	if err := p.fetchMetadata(ctx, ids, report, progress); err != nil {
		return err
	}
	if err := p.fetchCovers(ctx, ids, report, progress); err != nil {
		return err
	}
	if err := p.processImages(ctx, ids, report, progress); err != nil {
		return err
	}

	manifest := models.NewManifest(p.assemble(ids, report, progress))
	report.Albums = len(manifest.Albums)

	return p.writeManifest(manifest, progress)
}

func (p *Pipeline) recordStart(report *RunReport) {
	if p.history == nil {
		return
	}
	if err := p.history.Create(report.Record(nil)); err != nil {
		p.logger.Warn("failed to record run start", "run", report.RunID, "err", err)
	}
}

func (p *Pipeline) recordFinish(report *RunReport, err error) {
	if p.history == nil {
		return
	}
	if err := p.history.Update(report.Record(err)); err != nil {
		p.logger.Warn("failed to record run result", "run", report.RunID, "err", err)
	}
}
