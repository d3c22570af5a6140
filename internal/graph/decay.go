package graph

import (
	"math"
	"time"

	"github.com/avcheng/market-attention/internal/store"
)

// Decayed maintains a running co-mention state where every weight halves
// once per half-life of elapsed event time. Fold events in timestamp order;
// the state advances to each event's timestamp as it is applied.
type Decayed struct {
	halfLife time.Duration
	at       time.Time
	weights  map[Pair]float64
	volumes  map[string]float64
}

func NewDecayed(halfLife time.Duration) *Decayed {
	return &Decayed{
		halfLife: halfLife,
		weights:  make(map[Pair]float64),
		volumes:  make(map[string]float64),
	}
}

// Fold applies one stored mention. The mention's timestamp must not precede
// the previously folded one.
func (d *Decayed) Fold(m store.StoredMention) {
	d.advance(m.Event.Timestamp)

	tickers := uniqueSorted(m.Tickers)
	for _, t := range tickers {
		d.volumes[t]++
	}
	for i := 0; i < len(tickers); i++ {
		for j := i + 1; j < len(tickers); j++ {
			d.weights[NewPair(tickers[i], tickers[j])]++
		}
	}
}

// WeightsAt returns the edge weights decayed forward to t without mutating
// the running state.
func (d *Decayed) WeightsAt(t time.Time) map[Pair]float64 {
	factor := d.factor(t.Sub(d.at))
	out := make(map[Pair]float64, len(d.weights))
	for p, w := range d.weights {
		out[p] = w * factor
	}
	return out
}

// VolumesAt returns the per-ticker volumes decayed forward to t.
func (d *Decayed) VolumesAt(t time.Time) map[string]float64 {
	factor := d.factor(t.Sub(d.at))
	out := make(map[string]float64, len(d.volumes))
	for ticker, v := range d.volumes {
		out[ticker] = v * factor
	}
	return out
}

// advance decays all state up to the given time.
func (d *Decayed) advance(t time.Time) {
	if d.at.IsZero() {
		d.at = t
		return
	}
	if !t.After(d.at) {
		return
	}
	factor := d.factor(t.Sub(d.at))
	for p := range d.weights {
		d.weights[p] *= factor
	}
	for ticker := range d.volumes {
		d.volumes[ticker] *= factor
	}
	d.at = t
}

func (d *Decayed) factor(elapsed time.Duration) float64 {
	if elapsed <= 0 || d.halfLife <= 0 {
		return 1
	}
	return math.Pow(0.5, float64(elapsed)/float64(d.halfLife))
}
