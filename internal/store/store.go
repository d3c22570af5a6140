package store

import (
	"context"
	"time"

	"github.com/avcheng/market-attention/internal/model"
)

// InsertStatus reports the outcome of an idempotent insert.
type InsertStatus int

const (
	// StatusInserted means a new row was written.
	StatusInserted InsertStatus = iota

	// StatusDuplicate means a row with the same id already existed and the
	// store was left unchanged.
	StatusDuplicate
)

func (s InsertStatus) String() string {
	switch s {
	case StatusInserted:
		return "inserted"
	case StatusDuplicate:
		return "duplicate"
	}
	return "unknown"
}

// StoredMention is one event with its matched tickers, as returned by
// QueryWindow.
type StoredMention struct {
	Event   model.MentionEvent
	Tickers []string
}

// Store is the persistence contract for mention events.
type Store interface {
	// InsertEvent writes the event unless its id already exists.
	// A duplicate id is reported via StatusDuplicate, not an error.
	InsertEvent(ctx context.Context, event model.MentionEvent) (InsertStatus, error)

	// InsertMentions writes (eventID, ticker) rows, skipping pairs that
	// already exist. Returns the number of rows actually inserted.
	// Safe under concurrent writers targeting the same event id.
	InsertMentions(ctx context.Context, eventID string, tickers []string) (int, error)

	// QueryWindow returns events with timestamp in [start, end) together with
	// their tickers, ordered by timestamp ascending (id as tie-break).
	// Repeatable with different windows; no side effects.
	QueryWindow(ctx context.Context, start, end time.Time) ([]StoredMention, error)

	// CountEvents returns the total number of stored events.
	CountEvents(ctx context.Context) (int64, error)

	// VolumeByTicker returns per-ticker mention counts within [start, end).
	VolumeByTicker(ctx context.Context, start, end time.Time) (map[string]int64, error)

	// Close releases underlying resources.
	Close() error
}
