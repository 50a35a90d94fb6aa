// Package services implements the remote sources the favorites pipeline reads from.
//
// # Sources
//
//   - [CritiqueBrainzReviews] : the account's review listing, paged with limit/offset
//   - [MusicBrainzMetadata] : release group documents, stored verbatim
//   - [CoverArtArchive] : 500px front covers, stored as raw bytes
//
// Every request goes through a shared [fetch.Client], which supplies the User-Agent,
// request pacing, retries and stale-on-error fallback. Metadata and covers are written to
// their canonical cache keys ([cache.MetadataKey], [cache.CoverKey]) so the pipeline's
// existence checks see them on the next run.
//
// # Error Handling
//
// Failures wrap the fetch client's errors:
//   - [shared.ErrFetchExhausted] : every attempt failed and no cached copy exists
//   - [shared.ErrTransientFetch] : the last attempt's transport or status failure
//   - [shared.ErrMissingArgument] : empty account or id
package services
