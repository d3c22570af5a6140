package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avcheng/market-attention/internal/config"
	"github.com/avcheng/market-attention/internal/fetch"
	"github.com/avcheng/market-attention/internal/model"
)

func testWatchlist(t *testing.T) model.Watchlist {
	t.Helper()
	wl, err := model.NewWatchlist(map[string]string{
		"Apple":  "AAPL",
		"Nvidia": "NVDA",
	})
	if err != nil {
		t.Fatalf("NewWatchlist: %v", err)
	}
	return wl
}

func articlesPage(n int, page string) []byte {
	arts := make([]map[string]string, n)
	for i := range arts {
		arts[i] = map[string]string{
			"url":      fmt.Sprintf("https://news.example.com/%s-%d", page, i),
			"title":    "Apple news item",
			"seendate": "20250601T120000Z",
		}
	}
	data, _ := json.Marshal(map[string]any{"articles": arts})
	return data
}

func TestGDELT_PagesWhileFull(t *testing.T) {
	const maxRecords = 5

	var pagesServed atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pagesServed.Add(1)
		page := r.URL.Query().Get("page")

		// Pages 1 and 2 full, page 3 short: pagination must stop at 3.
		switch page {
		case "1", "2":
			w.Write(articlesPage(maxRecords, page))
		default:
			w.Write(articlesPage(2, page))
		}
	}))
	defer server.Close()

	cfg := config.GDELTConfig{
		BaseURL:    server.URL,
		Window:     time.Hour,
		MaxRecords: maxRecords,
	}
	g := NewGDELT(cfg, testWatchlist(t), fetch.NewClient(), nil)

	res := g.Collect(context.Background())
	if res.Status != StatusOK {
		t.Fatalf("Status = %v (err %v), want ok", res.Status, res.Err)
	}
	if len(res.Items) != 12 {
		t.Errorf("items = %d, want 12 (5+5+2)", len(res.Items))
	}
	if got := pagesServed.Load(); got != 3 {
		t.Errorf("pages requested = %d, want 3 (short page ends the window)", got)
	}
}

func TestGDELT_PageCapBoundsRunawayEndpoint(t *testing.T) {
	const maxRecords = 3

	// Every page comes back full; the cycle must stop at the cap instead of
	// paging forever.
	var pagesServed atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pagesServed.Add(1)
		w.Write(articlesPage(maxRecords, r.URL.Query().Get("page")))
	}))
	defer server.Close()

	cfg := config.GDELTConfig{
		BaseURL:    server.URL,
		Window:     time.Hour,
		MaxRecords: maxRecords,
	}
	g := NewGDELT(cfg, testWatchlist(t), fetch.NewClient(), nil)

	res := g.Collect(context.Background())
	if res.Status != StatusOK {
		t.Fatalf("Status = %v (err %v), want ok", res.Status, res.Err)
	}
	if got := pagesServed.Load(); got != maxPagesPerCycle {
		t.Errorf("pages requested = %d, want %d", got, maxPagesPerCycle)
	}
	if len(res.Items) != maxRecords*maxPagesPerCycle {
		t.Errorf("items = %d, want %d from capped pages", len(res.Items), maxRecords*maxPagesPerCycle)
	}
}

func TestGDELT_SingleShortPage(t *testing.T) {
	var pagesServed atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pagesServed.Add(1)
		w.Write(articlesPage(1, "1"))
	}))
	defer server.Close()

	cfg := config.GDELTConfig{BaseURL: server.URL, Window: time.Hour, MaxRecords: 250}
	g := NewGDELT(cfg, testWatchlist(t), fetch.NewClient(), nil)

	res := g.Collect(context.Background())
	if res.Status != StatusOK || len(res.Items) != 1 {
		t.Fatalf("got status %v, %d items", res.Status, len(res.Items))
	}
	if pagesServed.Load() != 1 {
		t.Errorf("pages = %d, want 1", pagesServed.Load())
	}

	item := res.Items[0]
	if item.ExternalID == "" {
		t.Error("ExternalID empty")
	}
	want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if !item.PublishedAt.Equal(want) {
		t.Errorf("PublishedAt = %v, want %v", item.PublishedAt, want)
	}
}

func TestGDELT_WindowParams(t *testing.T) {
	var gotStart, gotEnd string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStart = r.URL.Query().Get("startdatetime")
		gotEnd = r.URL.Query().Get("enddatetime")
		w.Write(articlesPage(0, "1"))
	}))
	defer server.Close()

	cfg := config.GDELTConfig{BaseURL: server.URL, Window: time.Hour, MaxRecords: 250}
	g := NewGDELT(cfg, testWatchlist(t), fetch.NewClient(), nil)
	g.now = func() time.Time {
		return time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	}

	if res := g.Collect(context.Background()); res.Status != StatusOK {
		t.Fatalf("Status = %v", res.Status)
	}
	if gotStart != "20250601120000" {
		t.Errorf("startdatetime = %q", gotStart)
	}
	if gotEnd != "20250601130000" {
		t.Errorf("enddatetime = %q", gotEnd)
	}
}

func TestGDELT_FirstPageFailureFailsCycle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := config.GDELTConfig{BaseURL: server.URL, Window: time.Hour, MaxRecords: 250}
	g := NewGDELT(cfg, testWatchlist(t), fetch.NewClient(fetch.WithRetries(0, time.Millisecond)), nil)

	res := g.Collect(context.Background())
	if res.Status != StatusFailed {
		t.Errorf("Status = %v, want failed", res.Status)
	}
	if res.Err == nil {
		t.Error("Err should be set on failure")
	}
}

func TestGDELT_LaterPageFailureKeepsEarlierPages(t *testing.T) {
	const maxRecords = 5
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			w.Write(articlesPage(maxRecords, "1"))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := config.GDELTConfig{BaseURL: server.URL, Window: time.Hour, MaxRecords: maxRecords}
	g := NewGDELT(cfg, testWatchlist(t), fetch.NewClient(fetch.WithRetries(0, time.Millisecond)), nil)

	res := g.Collect(context.Background())
	if res.Status != StatusOK {
		t.Fatalf("Status = %v, want ok with partial results", res.Status)
	}
	if len(res.Items) != maxRecords {
		t.Errorf("items = %d, want %d from surviving page", len(res.Items), maxRecords)
	}
}

func TestGDELT_RateLimited(t *testing.T) {
	reset := time.Now().Add(time.Minute).Unix()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.GDELTConfig{BaseURL: server.URL, Window: time.Hour, MaxRecords: 250}
	g := NewGDELT(cfg, testWatchlist(t), fetch.NewClient(), nil)

	res := g.Collect(context.Background())
	if res.Status != StatusRateLimited {
		t.Fatalf("Status = %v, want rate_limited", res.Status)
	}
	if res.ResetAt.Unix() != reset {
		t.Errorf("ResetAt = %v, want epoch %d", res.ResetAt, reset)
	}
}
