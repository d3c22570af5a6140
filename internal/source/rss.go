package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/avcheng/market-attention/internal/config"
	"github.com/avcheng/market-attention/internal/model"
)

// RSS is the feed poller: one request per configured feed URL per cycle.
// A feed's failure never aborts the other feeds in the same cycle.
type RSS struct {
	cfg    config.RSSConfig
	parser *gofeed.Parser
	logger *slog.Logger
}

var _ Adapter = (*RSS)(nil)

// NewRSS creates the feed adapter. requestTimeout bounds each feed fetch.
func NewRSS(cfg config.RSSConfig, requestTimeout time.Duration, logger *slog.Logger) *RSS {
	if logger == nil {
		logger = slog.Default()
	}

	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: requestTimeout}

	return &RSS{
		cfg:    cfg,
		parser: parser,
		logger: logger.With("source", "rss"),
	}
}

func (r *RSS) Name() string         { return "rss" }
func (r *RSS) Source() model.Source { return model.SourceRSS }
func (r *RSS) Mode() Mode           { return ModePoll }

// Collect fetches every configured feed. The cycle fails only when all
// feeds fail; partial outages produce the surviving feeds' items.
func (r *RSS) Collect(ctx context.Context) Result {
	var (
		items  []model.RawItem
		failed int
	)

	for _, feedURL := range r.cfg.Feeds {
		if ctx.Err() != nil {
			return Failed(ctx.Err())
		}

		feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			failed++
			r.logger.Warn("feed fetch failed, continuing with remaining feeds",
				"feed", feedURL,
				"err", err,
			)
			continue
		}

		for _, entry := range feed.Items {
			if entry.Link == "" {
				continue
			}
			var published time.Time
			if entry.PublishedParsed != nil {
				published = entry.PublishedParsed.UTC()
			}
			items = append(items, model.RawItem{
				Text:        entry.Title,
				ExternalID:  entry.Link,
				PublishedAt: published,
			})
		}
	}

	if failed == len(r.cfg.Feeds) {
		return Failed(fmt.Errorf("all %d feeds failed", failed))
	}

	return OK(items)
}
