package match

import (
	"sort"
	"strings"

	"github.com/avcheng/market-attention/internal/model"
)

// Match returns the sorted set of watch-list symbols mentioned in text.
// A symbol is reported when the entity name or the symbol itself appears,
// case-insensitively, anywhere in the text. Pure function: no I/O, no state.
func Match(text string, wl model.Watchlist) []string {
	if text == "" || wl.Len() == 0 {
		return nil
	}

	lower := strings.ToLower(text)
	seen := make(map[string]bool)

	wl.Each(func(name, symbol string) {
		if seen[symbol] {
			return
		}
		if strings.Contains(lower, name) || strings.Contains(lower, strings.ToLower(symbol)) {
			seen[symbol] = true
		}
	})

	if len(seen) == 0 {
		return nil
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
