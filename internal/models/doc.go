// Package models defines domain entities and persistence interfaces for the favorites pipeline.
//
// The package contains two categories of types:
//
// 1. Documents: values read from remote sources or the on-disk cache
//   - [Review] : One review record; 5-star release group reviews are favorites
//   - [Album] : A favorite's metadata document, kept verbatim with its parsed release date
//   - [Manifest] : The sorted `{ "albums": [...] }` document consumed by the site
//
// 2. Persistent Entities: database-backed run history
//   - [RunRecord] : One pipeline run with its per-phase counters and outcome
//
// Persistent entities implement the Model interface; the Repository[T] interface defines standard CRUD operations for database access.
package models
