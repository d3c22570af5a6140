// Package graph builds weighted co-mention graphs over tickers from stored
// mention events, either as per-window snapshots or as a time-decayed
// running state.
package graph
