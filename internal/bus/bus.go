package bus

import (
	"context"
	"time"

	"github.com/avcheng/market-attention/internal/model"
)

// Subject constants for downstream consumers.
const (
	SubjectMentionStored  = "attention.mention.stored"
	SubjectCycleCompleted = "attention.cycle.completed"
)

// MentionStored is emitted once per newly persisted event. Duplicate
// submissions do not produce a message.
type MentionStored struct {
	Event   model.MentionEvent `json:"event"`
	Tickers []string           `json:"tickers"`
}

// CycleCompleted is emitted at the end of every collection cycle,
// including cycles that produced no items.
type CycleCompleted struct {
	CycleID    string       `json:"cycle_id"`
	Source     model.Source `json:"source"`
	Items      int          `json:"items"`
	Matched    int          `json:"matched"`
	Inserted   int          `json:"inserted"`
	Duplicates int          `json:"duplicates"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Publisher is the interface for emitting pipeline events.
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
	Close() error
}
