package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Source identifies which collector produced an item.
type Source string

const (
	SourceReddit  Source = "reddit"
	SourceGDELT   Source = "gdelt"
	SourceRSS     Source = "rss"
	SourceTwitter Source = "twitter"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceReddit, SourceGDELT, SourceRSS, SourceTwitter:
		return true
	}
	return false
}

func (s Source) String() string {
	return string(s)
}

// RawItem is one item as produced by a source adapter, before matching.
type RawItem struct {
	Text        string    // Title/body text used for matching
	ExternalID  string    // Source URL or native ID, pre-canonicalization
	PublishedAt time.Time // Zero when the source carries no publish time
	Influence   *int64    // Optional reach signal (e.g. follower count)
}

// MentionEvent is one ingested item that matched at least one watch-list entry.
type MentionEvent struct {
	ID        string
	Source    Source
	Title     string
	Timestamp time.Time
	Influence *int64
}

// TickerMention associates a stored event with one matched ticker.
type TickerMention struct {
	EventID string
	Ticker  string
}

// EventID derives the stable event identifier for an external URL/ID.
// The same input always yields the same id.
func EventID(externalID string) string {
	sum := sha256.Sum256([]byte(CanonicalURL(externalID)))
	return hex.EncodeToString(sum[:])
}

// trackingParams are query parameters stripped during canonicalization.
// Two share links for the same article differ only in these.
var trackingParams = map[string]bool{
	"fbclid":     true,
	"gclid":      true,
	"mc_cid":     true,
	"mc_eid":     true,
	"ref":        true,
	"ref_src":    true,
	"src":        true,
	"utm_source": true,
}

// CanonicalURL normalizes an external URL so that tracking-parameter and
// casing variants of the same item map to one event id. Inputs that do not
// parse as absolute URLs (e.g. native post IDs) pass through unchanged.
func CanonicalURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimSpace(raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")

	q := u.Query()
	for key := range q {
		if trackingParams[key] || strings.HasPrefix(key, "utm_") {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// Watchlist maps canonical entity names to ticker symbols. It is immutable
// after construction; adapters and the matcher share one value.
type Watchlist struct {
	names   map[string]string // lowercased entity name -> symbol
	symbols []string          // sorted unique symbols
	display []string          // entity names as configured, sorted
}

// NewWatchlist builds a watch-list from name->symbol pairs.
func NewWatchlist(entries map[string]string) (Watchlist, error) {
	if len(entries) == 0 {
		return Watchlist{}, fmt.Errorf("watchlist is empty")
	}

	names := make(map[string]string, len(entries))
	symbolSet := make(map[string]bool, len(entries))
	display := make([]string, 0, len(entries))

	for name, symbol := range entries {
		name = strings.TrimSpace(name)
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if name == "" || symbol == "" {
			return Watchlist{}, fmt.Errorf("watchlist entry %q -> %q: empty name or symbol", name, symbol)
		}
		lower := strings.ToLower(name)
		if prev, ok := names[lower]; ok && prev != symbol {
			return Watchlist{}, fmt.Errorf("watchlist entry %q maps to both %s and %s", name, prev, symbol)
		}
		names[lower] = symbol
		symbolSet[symbol] = true
		display = append(display, name)
	}

	symbols := make([]string, 0, len(symbolSet))
	for s := range symbolSet {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	sort.Strings(display)

	return Watchlist{names: names, symbols: symbols, display: display}, nil
}

// Len returns the number of tracked entities.
func (w Watchlist) Len() int {
	return len(w.names)
}

// Symbols returns the sorted unique ticker symbols.
func (w Watchlist) Symbols() []string {
	out := make([]string, len(w.symbols))
	copy(out, w.symbols)
	return out
}

// Names returns the configured entity names, sorted.
func (w Watchlist) Names() []string {
	out := make([]string, len(w.display))
	copy(out, w.display)
	return out
}

// Each calls fn for every (lowercased name, symbol) pair in sorted name order.
// Deterministic iteration keeps matching and query construction stable.
func (w Watchlist) Each(fn func(lowerName, symbol string)) {
	keys := make([]string, 0, len(w.names))
	for k := range w.names {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fn(k, w.names[k])
	}
}
