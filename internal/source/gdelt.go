package source

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/avcheng/market-attention/internal/config"
	"github.com/avcheng/market-attention/internal/fetch"
	"github.com/avcheng/market-attention/internal/model"
)

const gdeltTimeLayout = "20060102150405"

// maxPagesPerCycle bounds one cycle against an endpoint that keeps returning
// full pages.
const maxPagesPerCycle = 20

// GDELT is the global-news poller. Each cycle covers the window
// [now-window, now) and pages through results while pages come back full.
type GDELT struct {
	cfg    config.GDELTConfig
	client *fetch.Client
	query  string
	logger *slog.Logger

	now func() time.Time
}

var _ Adapter = (*GDELT)(nil)

// NewGDELT creates the global-news adapter.
func NewGDELT(cfg config.GDELTConfig, wl model.Watchlist, client *fetch.Client, logger *slog.Logger) *GDELT {
	if logger == nil {
		logger = slog.Default()
	}
	return &GDELT{
		cfg:    cfg,
		client: client,
		query:  orQuery(wl),
		logger: logger.With("source", "gdelt"),
		now:    time.Now,
	}
}

func (g *GDELT) Name() string         { return "gdelt" }
func (g *GDELT) Source() model.Source { return model.SourceGDELT }
func (g *GDELT) Mode() Mode           { return ModePoll }

// articleWire is the GDELT ArtList response format.
type articleWire struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	SeenDate string `json:"seendate"`
}

type artListResponse struct {
	Articles []articleWire `json:"articles"`
}

// Collect fetches all pages for the current window. A short page signals
// end-of-results. A failure on a later page keeps the items already
// collected; only a failed first page fails the cycle.
func (g *GDELT) Collect(ctx context.Context) Result {
	end := g.now().UTC()
	start := end.Add(-g.cfg.Window)

	var items []model.RawItem

	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("query", g.query)
		query.Set("mode", "ArtList")
		query.Set("format", "json")
		query.Set("maxrecords", strconv.Itoa(g.cfg.MaxRecords))
		query.Set("startdatetime", start.Format(gdeltTimeLayout))
		query.Set("enddatetime", end.Format(gdeltTimeLayout))
		query.Set("page", strconv.Itoa(page))

		var resp artListResponse
		if err := g.client.GetJSON(ctx, g.cfg.BaseURL, query, &resp); err != nil {
			var rlErr *fetch.RateLimitError
			if errors.As(err, &rlErr) {
				return RateLimited(rlErr.Reset)
			}
			if page == 1 {
				return Failed(err)
			}
			// Keep what earlier pages produced.
			g.logger.Warn("page fetch failed, keeping earlier pages",
				"page", page,
				"err", err,
			)
			break
		}

		for _, art := range resp.Articles {
			if art.URL == "" {
				continue
			}
			items = append(items, model.RawItem{
				Text:        art.Title,
				ExternalID:  art.URL,
				PublishedAt: parseSeenDate(art.SeenDate),
			})
		}

		// A short page means end of results for this window.
		if len(resp.Articles) < g.cfg.MaxRecords {
			break
		}

		if page >= maxPagesPerCycle {
			g.logger.Warn("page cap reached, truncating cycle",
				"pages", page,
				"items", len(items),
			)
			break
		}
	}

	return OK(items)
}

// parseSeenDate handles GDELT's compact timestamp formats
// ("20060102T150405Z" and "20060102150405"). Unparseable values yield zero;
// the processor falls back to ingestion time.
func parseSeenDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"20060102T150405Z", gdeltTimeLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
