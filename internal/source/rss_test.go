package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avcheng/market-attention/internal/config"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>%s</title>
    <item>
      <title>Apple rallies on earnings</title>
      <link>https://news.example.com/%s/apple</link>
      <pubDate>Sun, 01 Jun 2025 12:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Nvidia announces new GPU</title>
      <link>https://news.example.com/%s/nvidia</link>
      <pubDate>Sun, 01 Jun 2025 12:30:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func feedServer(t *testing.T, name string, fail bool) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("not a feed"))
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, feedXML, name, name, name)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRSS_CollectsAllFeeds(t *testing.T) {
	a := feedServer(t, "feed-a", false)
	b := feedServer(t, "feed-b", false)

	cfg := config.RSSConfig{Feeds: []string{a.URL, b.URL}}
	r := NewRSS(cfg, 5*time.Second, nil)

	res := r.Collect(context.Background())
	if res.Status != StatusOK {
		t.Fatalf("Status = %v (err %v)", res.Status, res.Err)
	}
	if len(res.Items) != 4 {
		t.Errorf("items = %d, want 4", len(res.Items))
	}

	want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if !res.Items[0].PublishedAt.Equal(want) {
		t.Errorf("PublishedAt = %v, want %v", res.Items[0].PublishedAt, want)
	}
}

func TestRSS_FeedFailureIsolated(t *testing.T) {
	a := feedServer(t, "feed-a", false)
	bad := feedServer(t, "feed-bad", true)
	c := feedServer(t, "feed-c", false)

	cfg := config.RSSConfig{Feeds: []string{a.URL, bad.URL, c.URL}}
	r := NewRSS(cfg, 5*time.Second, nil)

	res := r.Collect(context.Background())
	if res.Status != StatusOK {
		t.Fatalf("one bad feed must not fail the cycle: %v (err %v)", res.Status, res.Err)
	}
	if len(res.Items) != 4 {
		t.Errorf("items = %d, want 4 from the two healthy feeds", len(res.Items))
	}
}

func TestRSS_AllFeedsFailing(t *testing.T) {
	bad1 := feedServer(t, "bad-1", true)
	bad2 := feedServer(t, "bad-2", true)

	cfg := config.RSSConfig{Feeds: []string{bad1.URL, bad2.URL}}
	r := NewRSS(cfg, 5*time.Second, nil)

	res := r.Collect(context.Background())
	if res.Status != StatusFailed {
		t.Errorf("Status = %v, want failed when every feed fails", res.Status)
	}
}
