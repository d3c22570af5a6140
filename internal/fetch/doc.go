// Package fetch provides the shared HTTP client for pull-style source
// adapters.
//
// The client bounds every request with a timeout, rate-limits outbound
// requests per source, retries transient failures (5xx) with jittered
// exponential backoff, and surfaces 429 responses as a typed RateLimitError
// carrying the server's reset time so the scheduler can suspend just that
// adapter.
package fetch
