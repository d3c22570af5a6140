package graph

import (
	"sort"
	"time"

	"github.com/avcheng/market-attention/internal/store"
)

// Pair is an unordered ticker pair. A is always the lexically smaller symbol,
// so {NVDA,AAPL} and {AAPL,NVDA} are the same key.
type Pair struct {
	A string
	B string
}

// NewPair normalizes the symbol order.
func NewPair(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Graph is one co-mention snapshot over a half-open window. It is a derived
// view over stored mentions and can always be rebuilt from the store.
type Graph struct {
	Start time.Time
	End   time.Time

	// Edges maps each unordered ticker pair to its accumulated co-mention
	// weight within the window.
	Edges map[Pair]float64

	// Volumes counts every mention per ticker, including tickers from
	// single-ticker events that contribute no edges.
	Volumes map[string]int64

	// Events is the number of events folded into the snapshot.
	Events int
}

// Edge is one weighted edge in sorted-output form.
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// Build folds a window of stored mentions into a new snapshot. Every
// unordered pair of an event's distinct tickers gains one unit of weight, so
// an event mentioning {A,B,C} strengthens A-B, A-C and B-C equally.
// The fold is deterministic: same mentions, same graph.
func Build(start, end time.Time, mentions []store.StoredMention) *Graph {
	g := &Graph{
		Start:   start,
		End:     end,
		Edges:   make(map[Pair]float64),
		Volumes: make(map[string]int64),
	}
	for _, m := range mentions {
		tickers := uniqueSorted(m.Tickers)
		if len(tickers) == 0 {
			continue
		}
		g.Events++
		for _, t := range tickers {
			g.Volumes[t]++
		}
		for i := 0; i < len(tickers); i++ {
			for j := i + 1; j < len(tickers); j++ {
				g.Edges[NewPair(tickers[i], tickers[j])]++
			}
		}
	}
	return g
}

// BuildWindows produces a snapshot per stepped window across [start, end).
// Each window is [t, t+window) and snapshots never share state, so earlier
// graphs stay valid for side-by-side comparison. A non-positive step yields
// no snapshots.
func BuildWindows(mentions []store.StoredMention, start, end time.Time, window, step time.Duration) []*Graph {
	if step <= 0 {
		return nil
	}
	var out []*Graph
	for t := start; t.Before(end); t = t.Add(step) {
		wEnd := t.Add(window)
		var inWindow []store.StoredMention
		for _, m := range mentions {
			ts := m.Event.Timestamp
			if !ts.Before(t) && ts.Before(wEnd) {
				inWindow = append(inWindow, m)
			}
		}
		out = append(out, Build(t, wEnd, inWindow))
	}
	return out
}

// SortedEdges returns the edge list ordered by (source, target) for stable
// output.
func (g *Graph) SortedEdges() []Edge {
	edges := make([]Edge, 0, len(g.Edges))
	for p, w := range g.Edges {
		edges = append(edges, Edge{Source: p.A, Target: p.B, Weight: w})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	return edges
}

// Node is one ticker with its attention volume.
type Node struct {
	ID     string `json:"id"`
	Volume int64  `json:"volume"`
}

// Stats summarizes a snapshot.
type Stats struct {
	TotalNodes int `json:"total_nodes"`
	TotalEdges int `json:"total_edges"`
	Events     int `json:"events"`
}

// Export is the JSON shape of a snapshot.
type Export struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Nodes []Node    `json:"nodes"`
	Edges []Edge    `json:"edges"`
	Stats Stats     `json:"stats"`
}

// Export renders the snapshot in a stable, sorted JSON-friendly form.
func (g *Graph) Export() Export {
	nodes := make([]Node, 0, len(g.Volumes))
	for id, vol := range g.Volumes {
		nodes = append(nodes, Node{ID: id, Volume: vol})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	return Export{
		Start: g.Start,
		End:   g.End,
		Nodes: nodes,
		Edges: g.SortedEdges(),
		Stats: Stats{
			TotalNodes: len(nodes),
			TotalEdges: len(g.Edges),
			Events:     g.Events,
		},
	}
}

func uniqueSorted(tickers []string) []string {
	if len(tickers) == 0 {
		return nil
	}
	out := append([]string(nil), tickers...)
	sort.Strings(out)
	n := 0
	for i, t := range out {
		if i == 0 || t != out[i-1] {
			out[n] = t
			n++
		}
	}
	return out[:n]
}
