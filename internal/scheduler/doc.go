// Package scheduler runs source adapters on independent loops: poll adapters
// on a fixed cadence, stream adapters continuously with redial backoff.
// Rate-limit suspensions and auth shutdowns are scoped to a single adapter.
package scheduler
