// Package repositories implements SQLite persistence for pipeline run history.
//
// [RunRepository] stores one row per run with soft deletes via deleted_at, excluding deleted
// rows from queries by default. Each run also gets a sequence number from [NextSequence] so the
// history reads as run #1, #2, ... independent of UUIDs and clock skew.
package repositories
