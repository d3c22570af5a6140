package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	gocache "github.com/patrickmn/go-cache"

	"github.com/avcheng/market-attention/internal/bus"
	"github.com/avcheng/market-attention/internal/match"
	"github.com/avcheng/market-attention/internal/model"
	"github.com/avcheng/market-attention/internal/store"
)

const (
	// seenTTL bounds how long event ids stay in the fast-path cache. The
	// store remains the source of truth for deduplication beyond this.
	seenTTL       = 24 * time.Hour
	seenCleanup   = time.Hour
	maxTitleRunes = 512
)

// ProcessStats summarizes one batch of raw items.
type ProcessStats struct {
	Items      int // raw items received
	Matched    int // items that matched at least one watchlist entry
	Inserted   int // new events persisted
	Duplicates int // events already present (cache or store)
	Mentions   int // new (event, ticker) rows written
}

// Processor turns raw source items into persisted mention events. Items with
// no watchlist match are discarded before any store access.
type Processor struct {
	store  store.Store
	pub    bus.Publisher
	wl     model.Watchlist
	logger *slog.Logger
	seen   *gocache.Cache
	now    func() time.Time
}

func NewProcessor(st store.Store, pub bus.Publisher, wl model.Watchlist, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if pub == nil {
		pub = &bus.NoopPublisher{}
	}
	return &Processor{
		store:  st,
		pub:    pub,
		wl:     wl,
		logger: logger,
		seen:   gocache.New(seenTTL, seenCleanup),
		now:    time.Now,
	}
}

// Process runs one batch through match, dedup and persistence. All items are
// attempted even when some fail; per-item store errors are joined into the
// returned error alongside the stats for the items that succeeded.
func (p *Processor) Process(ctx context.Context, src model.Source, items []model.RawItem) (ProcessStats, error) {
	var stats ProcessStats
	var errs []error
	stats.Items = len(items)

	for _, item := range items {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		tickers := match.Match(item.Text, p.wl)
		if len(tickers) == 0 {
			continue
		}
		stats.Matched++

		id := model.EventID(item.ExternalID)
		if _, found := p.seen.Get(id); found {
			stats.Duplicates++
			continue
		}

		event := model.MentionEvent{
			ID:        id,
			Source:    src,
			Title:     truncate(item.Text, maxTitleRunes),
			Timestamp: item.PublishedAt,
			Influence: item.Influence,
		}
		if event.Timestamp.IsZero() {
			event.Timestamp = p.now().UTC()
		}

		status, err := p.store.InsertEvent(ctx, event)
		if err != nil {
			errs = append(errs, fmt.Errorf("insert event %s: %w", id, err))
			continue
		}

		// Mentions are written even when the event row already existed: a
		// prior writer may have crashed between the two inserts, and the
		// set-semantic insert heals that without double-counting.
		n, err := p.store.InsertMentions(ctx, id, tickers)
		if err != nil {
			errs = append(errs, fmt.Errorf("insert mentions for %s: %w", id, err))
			continue
		}
		stats.Mentions += n

		// Only a fully written event skips store access on replay.
		p.seen.SetDefault(id, struct{}{})

		if status == store.StatusDuplicate {
			stats.Duplicates++
			continue
		}
		stats.Inserted++

		if err := p.pub.Publish(ctx, bus.SubjectMentionStored, bus.MentionStored{
			Event:   event,
			Tickers: tickers,
		}); err != nil {
			p.logger.Warn("publish failed", "event_id", id, "err", err)
		}
	}

	return stats, errors.Join(errs...)
}

func truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes])
}
