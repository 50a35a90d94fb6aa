package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/egecelikci/favorites/internal/cache"
	"github.com/egecelikci/favorites/internal/fetch"
	"github.com/egecelikci/favorites/internal/formatter"
	"github.com/egecelikci/favorites/internal/imaging"
	"github.com/egecelikci/favorites/internal/models"
	"github.com/egecelikci/favorites/internal/shared"
)

func (p *Pipeline) ensureDirs(progress chan<- ProgressUpdate) error {
	dirs := []string{
		p.store.Dir(cache.MetadataKey("")),
		p.store.Dir(cache.CoverKey("")),
		p.paths.MonoDir(),
		p.paths.ColorDir(),
	}
	p.sendProgress(progress, phaseStartUpdate(EnsureDirs, len(dirs), "Preparing directories..."))

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Resolve pages through the review source and returns the favorite set in first-seen order.
//
// A failure on the first page wraps [shared.ErrResolution]. A failure on a later page stops
// pagination and keeps what was accumulated.
func (p *Pipeline) Resolve(ctx context.Context, progress chan<- ProgressUpdate) ([]string, error) {
	logger := p.phaseLogger(ResolveFavorites)
	p.sendProgress(progress, phaseStartUpdate(ResolveFavorites, 0, "Resolving favorites..."))

	var reviews []models.Review
	for page := 0; page < maxReviewPages; page++ {
		batch, err := p.reviews.Reviews(ctx, page*p.pageSize, p.pageSize)
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("%w: %v", shared.ErrResolution, err)
			}
			logger.Warn("review pagination aborted, keeping partial results", "page", page, "reviews", len(reviews), "err", err)
			break
		}
		if len(batch) == 0 {
			break
		}

		reviews = append(reviews, batch...)
		p.sendProgress(progress, reviewPageUpdate(page+1, len(batch)))
	}

	ids := models.FavoriteIDs(reviews)
	logger.Info("resolved favorites", "reviews", len(reviews), "favorites", len(ids))
	p.sendProgress(progress, resolvedUpdate(ids))

	return ids, nil
}

// fetchFunc fetches one item and reports the fetch client's response.
type fetchFunc func(ctx context.Context, id string) (*fetch.Response, error)

// fetchMissing fetches every id whose cache entry is absent, one at a time, sleeping the courtesy
// delay after each fetch that reached the network. It returns the number of items fetched.
func (p *Pipeline) fetchMissing(ctx context.Context, phase Phase, ids []string, key func(string) cache.Key, fn fetchFunc, report *RunReport, progress chan<- ProgressUpdate) (int, error) {
	logger := p.phaseLogger(phase)

	var missing []string
	for _, id := range ids {
		if !p.store.Exists(key(id)) {
			missing = append(missing, id)
		}
	}

	logger.Info("checked cache", "total", len(ids), "missing", len(missing))
	p.sendProgress(progress, phaseStartUpdate(phase, len(missing), fmt.Sprintf("Fetching %d missing items...", len(missing))))

	fetched := 0
	for i, id := range missing {
		if err := ctx.Err(); err != nil {
			return fetched, err
		}

		resp, err := fn(ctx, id)
		switch {
		case err != nil:
			logger.Error("fetch failed, will retry next run", "id", id, "err", err)
			report.fail(id, phase, err)
		case resp.Stale:
			logger.Warn("served stale copy", "id", id)
			fetched++
		default:
			fetched++
		}
		p.sendProgress(progress, itemUpdate(phase, i+1, len(missing), id, err))

		if touchedNetwork(resp, err) && p.delay > 0 {
			if err := p.sleep(ctx, p.delay); err != nil {
				return fetched, err
			}
		}
	}

	return fetched, nil
}

// touchedNetwork reports whether a fetch made at least one network attempt.
func touchedNetwork(resp *fetch.Response, err error) bool {
	if resp != nil {
		return resp.Networked()
	}
	var exhausted *fetch.FetchExhaustedError
	return errors.As(err, &exhausted) && exhausted.Attempts > 0
}

func (p *Pipeline) fetchMetadata(ctx context.Context, ids []string, report *RunReport, progress chan<- ProgressUpdate) error {
	n, err := p.fetchMissing(ctx, FetchMetadata, ids, cache.MetadataKey, p.metadata.FetchMetadata, report, progress)
	report.MetadataFetched = n
	return err
}

func (p *Pipeline) fetchCovers(ctx context.Context, ids []string, report *RunReport, progress chan<- ProgressUpdate) error {
	n, err := p.fetchMissing(ctx, FetchCovers, ids, cache.CoverKey, p.covers.FetchCover, report, progress)
	report.CoversFetched = n
	return err
}

// wantedVariants returns the variants id still needs.
func (p *Pipeline) wantedVariants(id string) imaging.Variant {
	var want imaging.Variant
	if p.variants == VariantsDual && !shared.FileExists(p.paths.MonoPath(id)) {
		want |= imaging.VariantMono
	}
	if !shared.FileExists(p.paths.ColorPath(id)) {
		want |= imaging.VariantColor
	}
	return want
}

// processImages derives missing cover variants concurrently, bounded by the configured concurrency.
// Items without a raw cover are skipped; failures are recorded and never cancel other items.
func (p *Pipeline) processImages(ctx context.Context, ids []string, report *RunReport, progress chan<- ProgressUpdate) error {
	logger := p.phaseLogger(ProcessImages)

	type job struct {
		id   string
		want imaging.Variant
	}
	var jobs []job
	for _, id := range ids {
		if want := p.wantedVariants(id); want != 0 {
			jobs = append(jobs, job{id: id, want: want})
		}
	}

	logger.Info("checked processed covers", "total", len(ids), "missing", len(jobs))
	p.sendProgress(progress, phaseStartUpdate(ProcessImages, len(jobs), fmt.Sprintf("Processing %d covers...", len(jobs))))

	var g errgroup.Group
	g.SetLimit(p.concurrency)

	for i, j := range jobs {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			src, ok := p.store.Read(cache.CoverKey(j.id), shared.Forever)
			if !ok {
				logger.Debug("no raw cover, skipping", "id", j.id)
				return nil
			}

			err := p.processor.Derive(src, p.paths.MonoPath(j.id), p.paths.ColorPath(j.id), j.want)
			if err != nil {
				logger.Error("image processing failed, will retry next run", "id", j.id, "err", err)
				report.fail(j.id, ProcessImages, err)
			} else {
				report.processed()
			}
			p.sendProgress(progress, itemUpdate(ProcessImages, i+1, len(jobs), j.id, err))
			return nil
		})
	}
	g.Wait()

	return ctx.Err()
}

// eligible reports whether id passes the gate: metadata and color cover, plus mono under [GateBoth].
func (p *Pipeline) eligible(id string) bool {
	if !p.store.Exists(cache.MetadataKey(id)) || !shared.FileExists(p.paths.ColorPath(id)) {
		return false
	}
	if p.gate == GateBoth && !shared.FileExists(p.paths.MonoPath(id)) {
		return false
	}
	return true
}

// assemble parses the metadata of every eligible id in favorite order. Corrupt documents are skipped.
func (p *Pipeline) assemble(ids []string, report *RunReport, progress chan<- ProgressUpdate) []*models.Album {
	logger := p.phaseLogger(Assemble)
	p.sendProgress(progress, phaseStartUpdate(Assemble, len(ids), "Assembling manifest..."))

	albums := make([]*models.Album, 0, len(ids))
	for _, id := range ids {
		if !p.eligible(id) {
			logger.Debug("not eligible yet", "id", id)
			continue
		}

		data, err := os.ReadFile(p.store.Path(cache.MetadataKey(id)))
		if err != nil {
			logger.Error("failed to read metadata", "id", id, "err", err)
			report.fail(id, Assemble, fmt.Errorf("%w: %v", shared.ErrCacheRead, err))
			continue
		}

		album, err := models.ParseAlbum(id, data)
		if err != nil {
			logger.Error("corrupt metadata, excluding", "id", id, "err", err)
			report.fail(id, Assemble, err)
			continue
		}
		albums = append(albums, album)
	}

	logger.Info("assembled albums", "eligible", len(albums), "favorites", len(ids))
	return albums
}

func (p *Pipeline) writeManifest(manifest *models.Manifest, progress chan<- ProgressUpdate) error {
	if err := formatter.WriteManifest(p.paths.Manifest, manifest); err != nil {
		return err
	}

	p.phaseLogger(WriteManifest).Info("wrote manifest", "path", p.paths.Manifest, "albums", len(manifest.Albums))
	p.sendProgress(progress, manifestUpdate(p.paths.Manifest, len(manifest.Albums)))
	return nil
}
