// Package source implements the four source adapters.
//
// Each adapter turns a source-specific protocol into a finite-per-cycle batch
// of raw items:
//   - reddit: push-style websocket subscription (continuous)
//   - gdelt: paged pull over an explicit [start, end) window
//   - rss: one request per configured feed, failures isolated per feed
//   - twitter: search pull with a minimum-influence threshold
//
// Collect never panics the pipeline: outcomes are reported as a typed Result
// (OK, RateLimited with reset time, Failed, AuthFailed) that the scheduler
// branches on. Adapters keep no watermark of their own; the store's
// idempotent insert absorbs reprocessing after restarts.
package source
