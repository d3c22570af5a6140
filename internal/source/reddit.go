package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/avcheng/market-attention/internal/config"
	"github.com/avcheng/market-attention/internal/model"
)

// defaultFlushInterval bounds how long one stream cycle waits for items
// before returning its batch, which is also the bound on how long shutdown
// can block behind a quiet stream.
const defaultFlushInterval = 2 * time.Second

// Reddit is the social-stream adapter: a long-lived websocket subscription
// to submission events on the configured subreddits. Each Collect cycle
// yields the items that arrived since the last one.
type Reddit struct {
	cfg           config.RedditConfig
	logger        *slog.Logger
	flushInterval time.Duration
	dialer        *websocket.Dialer

	mu           sync.Mutex
	conn         *websocket.Conn
	subscribedAt time.Time
}

var _ Adapter = (*Reddit)(nil)

// NewReddit creates the social-stream adapter. The connection is established
// lazily on the first Collect.
func NewReddit(cfg config.RedditConfig, logger *slog.Logger) *Reddit {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reddit{
		cfg:           cfg,
		logger:        logger.With("source", "reddit"),
		flushInterval: defaultFlushInterval,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

func (r *Reddit) Name() string         { return "reddit" }
func (r *Reddit) Source() model.Source { return model.SourceReddit }
func (r *Reddit) Mode() Mode           { return ModeStream }

// subscribeMsg is sent once per connection.
type subscribeMsg struct {
	Action     string   `json:"action"`
	Subreddits []string `json:"subreddits"`
	Backlog    string   `json:"backlog"` // "replay" or "none"
}

// submissionWire is one submission frame from the stream.
type submissionWire struct {
	Kind       string  `json:"kind"`
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Subreddit  string  `json:"subreddit"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc"`
}

// Collect reads submissions until the flush interval elapses, then returns
// the batch. Connection failures end the cycle; the next cycle redials.
func (r *Reddit) Collect(ctx context.Context) Result {
	conn, subscribedAt, res := r.ensureConnected(ctx)
	if conn == nil {
		return res
	}

	var items []model.RawItem
	deadline := time.Now().Add(r.flushInterval)

	for time.Now().Before(deadline) && len(items) < r.cfg.BufferSize {
		if ctx.Err() != nil {
			return OK(items)
		}

		conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				// Quiet stream; flush what we have.
				return OK(items)
			}
			r.dropConnection()
			if len(items) > 0 {
				r.logger.Warn("stream read failed, flushing partial batch", "err", err)
				return OK(items)
			}
			return Failed(fmt.Errorf("stream read: %w", err))
		}

		var sub submissionWire
		if err := json.Unmarshal(data, &sub); err != nil {
			r.logger.Warn("skipping unparseable frame", "err", err)
			continue
		}
		if sub.Kind != "submission" || sub.ID == "" {
			continue
		}

		published := time.Unix(int64(sub.CreatedUTC), 0).UTC()
		if !r.cfg.ReplayBacklog && sub.CreatedUTC > 0 && published.Before(subscribedAt) {
			// Skip-existing mode: drop backlog items.
			continue
		}

		externalID := sub.Permalink
		if externalID == "" {
			externalID = sub.ID
		}

		text := sub.Title
		if sub.Selftext != "" {
			text += " " + sub.Selftext
		}

		items = append(items, model.RawItem{
			Text:        text,
			ExternalID:  externalID,
			PublishedAt: published,
		})
	}

	return OK(items)
}

// ensureConnected dials and subscribes if no live connection exists.
// Returns a nil conn with the failure Result when connecting fails.
func (r *Reddit) ensureConnected(ctx context.Context) (*websocket.Conn, time.Time, Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil {
		return r.conn, r.subscribedAt, Result{}
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	if r.cfg.ClientID != "" {
		header.Set("X-Client-ID", r.cfg.ClientID)
		header.Set("Authorization", "Bearer "+r.cfg.ClientSecret)
	}

	conn, resp, err := r.dialer.DialContext(ctx, r.cfg.StreamURL, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, time.Time{}, AuthFailed(fmt.Errorf("stream dial rejected: %s", resp.Status))
		}
		return nil, time.Time{}, Failed(fmt.Errorf("stream dial: %w", err))
	}

	backlog := "none"
	if r.cfg.ReplayBacklog {
		backlog = "replay"
	}
	msg := subscribeMsg{
		Action:     "subscribe",
		Subreddits: r.cfg.Subreddits,
		Backlog:    backlog,
	}
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(msg); err != nil {
		conn.Close()
		return nil, time.Time{}, Failed(fmt.Errorf("subscribe: %w", err))
	}

	r.conn = conn
	r.subscribedAt = time.Now().UTC()

	r.logger.Info("stream subscribed",
		"subreddits", len(r.cfg.Subreddits),
		"backlog", backlog,
	)

	return conn, r.subscribedAt, Result{}
}

// dropConnection closes and forgets the connection so the next cycle redials.
func (r *Reddit) dropConnection() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
}

// Close shuts the stream down gracefully.
func (r *Reddit) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return nil
	}
	r.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	err := r.conn.Close()
	r.conn = nil
	return err
}
