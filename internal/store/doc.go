// Package store implements the Mention Event Store.
//
// The store is the single source of truth for the pipeline:
//   - mention_events: one row per ingested item that matched the watch-list
//   - ticker_mentions: (event_id, ticker) set rows
//
// Inserts are idempotent. A duplicate event id is an expected outcome reported
// as StatusDuplicate, never an error; mention rows are unique per
// (event_id, ticker) even under concurrent writers. Rows are immutable after
// insert and are never deleted by the pipeline.
//
// Two implementations: Postgres (production, pgx with ON CONFLICT DO NOTHING)
// and Memory (tests and dry runs).
package store
