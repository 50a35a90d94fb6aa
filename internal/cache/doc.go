// Package cache implements the on-disk Cache Store shared by the fetch client and the favorites pipeline.
//
// # Keys
//
// A [Key] names one entry: a directory under the cache root, a file name and a content [Type].
// The type decides both the file extension and how values are (de)serialized:
//   - [JSON] : ".json", must parse as JSON to count as present
//   - [Buffer] : ".buffer", raw bytes
//   - [Text] : ".txt", UTF-8 text
//
// [KeyFor] derives a stable fingerprint from a URL plus request options for generic HTTP caching,
// while [MetadataKey] and [CoverKey] address per-album assets by their FavoriteId.
//
// # Freshness
//
// Entries have no stored expiry. [Store.Read] compares the file modification time against the caller's max age;
// an expired entry reads as absent but stays on disk so it can still serve as a stale fallback
// (read with [shared.Forever]). A max age of zero always reads as absent.
//
// # Failure Model
//
// Reads fail soft: filesystem and parse errors are reported as a miss, never as an error.
// Writes go through a temp file and rename, so a crash cannot leave a half-written entry behind.
package cache
