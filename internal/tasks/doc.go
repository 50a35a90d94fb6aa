// Package tasks runs the favorites reconciliation pipeline with real-time progress reporting.
//
// # Phases
//
// A [Pipeline.Run] is one pass through seven phases:
//
//  1. [EnsureDirs] : create the metadata, raw cover and processed cover directories
//  2. [ResolveFavorites] : page through the review source until an empty page and keep 5-star release groups
//  3. [FetchMetadata] : fetch metadata for ids without a cached document, one at a time
//  4. [FetchCovers] : fetch raw covers for ids without a cached buffer, one at a time
//  5. [ProcessImages] : derive missing mono and color variants concurrently
//  6. [Assemble] : parse the metadata of every id that passes the gate
//  7. [WriteManifest] : sort newest first and atomically replace the manifest
//
// The serial phases sleep a courtesy delay after every fetch that reached the network and never on a cache hit.
// Existence on disk is the only freshness signal, so a rerun with nothing new makes no metadata or cover requests
// and writes a byte-identical manifest.
//
// # Failure Handling
//
// Per-item failures are logged, collected in [RunReport.Failures] and retried on the next run.
// If the first review page cannot be fetched the run stops early without touching the manifest.
// An advisory lock file under the cache root keeps two runs from writing at once.
//
// # Progress Reporting
//
// Progress updates are sent on a caller-supplied channel with select/default so a slow reader never blocks the run.
//
// # Gating
//
// [GateColor] admits an item once its metadata and color cover exist; [GateBoth] also requires the mono cover.
package tasks
