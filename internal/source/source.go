package source

import (
	"context"
	"strings"
	"time"

	"github.com/avcheng/market-attention/internal/model"
)

// Mode describes how an adapter produces items.
type Mode int

const (
	// ModePoll adapters run on a fixed interval.
	ModePoll Mode = iota

	// ModeStream adapters are collected continuously.
	ModeStream
)

// Status classifies the outcome of one collect cycle.
type Status int

const (
	// StatusOK means the cycle produced items (possibly zero).
	StatusOK Status = iota

	// StatusRateLimited means the source asked us to back off until ResetAt.
	StatusRateLimited

	// StatusFailed means a transient failure; retry on the next cycle.
	StatusFailed

	// StatusAuthFailed means credentials were rejected; fatal for this
	// adapter's run, other adapters are unaffected.
	StatusAuthFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusRateLimited:
		return "rate_limited"
	case StatusFailed:
		return "failed"
	case StatusAuthFailed:
		return "auth_failed"
	}
	return "unknown"
}

// Result is the typed outcome of one collect cycle. Rate-limit and auth
// outcomes are data, not errors; the scheduler decides what to do with them.
type Result struct {
	Items   []model.RawItem
	Status  Status
	ResetAt time.Time // set when Status is StatusRateLimited
	Err     error     // set when Status is StatusFailed or StatusAuthFailed
}

// OK wraps a successful batch.
func OK(items []model.RawItem) Result {
	return Result{Items: items, Status: StatusOK}
}

// RateLimited wraps a rate-limit signal with the server reset time.
func RateLimited(reset time.Time) Result {
	return Result{Status: StatusRateLimited, ResetAt: reset}
}

// Failed wraps a transient failure.
func Failed(err error) Result {
	return Result{Status: StatusFailed, Err: err}
}

// AuthFailed wraps a fatal credential failure.
func AuthFailed(err error) Result {
	return Result{Status: StatusAuthFailed, Err: err}
}

// Adapter is implemented by every source.
type Adapter interface {
	// Name is the adapter's log/metrics identifier.
	Name() string

	// Source is the enum value stamped on events from this adapter.
	Source() model.Source

	// Mode reports whether the adapter polls or streams.
	Mode() Mode

	// Collect produces one cycle's batch of raw items.
	Collect(ctx context.Context) Result
}

// orQuery builds the boolean search expression over watch-list entity names,
// e.g. ("Apple" OR "Nvidia" OR "Bitcoin"). Name order is deterministic.
func orQuery(wl model.Watchlist) string {
	names := wl.Names()
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = `"` + n + `"`
	}
	return "(" + strings.Join(quoted, " OR ") + ")"
}
