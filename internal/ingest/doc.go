// Package ingest connects source adapters to the store: it matches raw items
// against the watchlist, derives stable event ids, and persists new events
// and their ticker mentions exactly once.
package ingest
