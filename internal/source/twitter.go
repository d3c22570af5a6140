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

// twitterTimeLayout is the classic status created_at format.
const twitterTimeLayout = "Mon Jan 02 15:04:05 -0700 2006"

// Twitter is the microblog poller. Posts below the configured follower
// threshold are discarded here, before they ever reach the matcher or store.
type Twitter struct {
	cfg    config.TwitterConfig
	client *fetch.Client
	query  string
	logger *slog.Logger
}

var _ Adapter = (*Twitter)(nil)

// NewTwitter creates the microblog adapter. The client must carry the
// session cookie header.
func NewTwitter(cfg config.TwitterConfig, wl model.Watchlist, client *fetch.Client, logger *slog.Logger) *Twitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Twitter{
		cfg:    cfg,
		client: client,
		query:  orQuery(wl),
		logger: logger.With("source", "twitter"),
	}
}

func (t *Twitter) Name() string         { return "twitter" }
func (t *Twitter) Source() model.Source { return model.SourceTwitter }
func (t *Twitter) Mode() Mode           { return ModePoll }

// statusWire is the search response post format.
type statusWire struct {
	ID        string `json:"id_str"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	User      struct {
		FollowersCount int64 `json:"followers_count"`
	} `json:"user"`
}

type searchResponse struct {
	Statuses []statusWire `json:"statuses"`
}

// Collect runs one search cycle. 429 becomes RateLimited with the server's
// reset time; 401/403 is fatal for this adapter's run.
func (t *Twitter) Collect(ctx context.Context) Result {
	query := url.Values{}
	query.Set("q", t.query)
	query.Set("result_type", "recent")
	query.Set("count", strconv.Itoa(t.cfg.MaxResults))

	var resp searchResponse
	if err := t.client.GetJSON(ctx, t.cfg.BaseURL, query, &resp); err != nil {
		var rlErr *fetch.RateLimitError
		if errors.As(err, &rlErr) {
			return RateLimited(rlErr.Reset)
		}
		if fetch.IsAuthError(err) {
			return AuthFailed(err)
		}
		return Failed(err)
	}

	var (
		items     []model.RawItem
		discarded int
	)

	for _, status := range resp.Statuses {
		if status.ID == "" {
			continue
		}
		if status.User.FollowersCount < t.cfg.MinFollowers {
			discarded++
			continue
		}

		influence := status.User.FollowersCount
		var published time.Time
		if ts, err := time.Parse(twitterTimeLayout, status.CreatedAt); err == nil {
			published = ts.UTC()
		}

		items = append(items, model.RawItem{
			Text:        status.Text,
			ExternalID:  status.ID,
			PublishedAt: published,
			Influence:   &influence,
		})
	}

	if discarded > 0 {
		t.logger.Debug("discarded low-influence posts",
			"discarded", discarded,
			"min_followers", t.cfg.MinFollowers,
		)
	}

	return OK(items)
}
