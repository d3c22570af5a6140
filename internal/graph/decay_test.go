package graph

import (
	"math"
	"testing"
	"time"
)

func TestDecayed_HalfLife(t *testing.T) {
	d := NewDecayed(time.Hour)
	d.Fold(mention("e1", at(0), "AAPL", "NVDA"))

	w := d.WeightsAt(at(1))[NewPair("AAPL", "NVDA")]
	if math.Abs(w-0.5) > 1e-9 {
		t.Errorf("weight after one half-life = %v, want 0.5", w)
	}

	w = d.WeightsAt(at(2))[NewPair("AAPL", "NVDA")]
	if math.Abs(w-0.25) > 1e-9 {
		t.Errorf("weight after two half-lives = %v, want 0.25", w)
	}
}

func TestDecayed_FoldAdvancesState(t *testing.T) {
	d := NewDecayed(time.Hour)
	d.Fold(mention("e1", at(0), "AAPL", "NVDA"))
	d.Fold(mention("e2", at(1), "AAPL", "NVDA"))

	// First unit decayed to 0.5 by the second event, plus the fresh unit.
	w := d.WeightsAt(at(1))[NewPair("AAPL", "NVDA")]
	if math.Abs(w-1.5) > 1e-9 {
		t.Errorf("weight = %v, want 1.5", w)
	}
}

func TestDecayed_WeightsAtDoesNotMutate(t *testing.T) {
	d := NewDecayed(time.Hour)
	d.Fold(mention("e1", at(0), "AAPL", "NVDA"))

	_ = d.WeightsAt(at(10))
	w := d.WeightsAt(at(1))[NewPair("AAPL", "NVDA")]
	if math.Abs(w-0.5) > 1e-9 {
		t.Errorf("weight = %v, want 0.5; WeightsAt must be read-only", w)
	}
}

func TestDecayed_SingleTickerVolume(t *testing.T) {
	d := NewDecayed(time.Hour)
	d.Fold(mention("e1", at(0), "BTC"))

	if len(d.WeightsAt(at(0))) != 0 {
		t.Error("single-ticker event must not create edges")
	}
	v := d.VolumesAt(at(1))["BTC"]
	if math.Abs(v-0.5) > 1e-9 {
		t.Errorf("volume = %v, want 0.5", v)
	}
}

func TestDecayed_BatchAndStreamingAgree(t *testing.T) {
	mentions := []struct {
		id      string
		hour    int
		tickers []string
	}{
		{"e1", 0, []string{"AAPL", "NVDA"}},
		{"e2", 1, []string{"AAPL", "MSFT", "NVDA"}},
		{"e3", 3, []string{"BTC"}},
		{"e4", 4, []string{"AAPL", "NVDA"}},
	}

	// Streaming: one fold per arrival.
	stream := NewDecayed(time.Hour)
	for _, m := range mentions {
		stream.Fold(mention(m.id, at(m.hour), m.tickers...))
	}

	// Batch: replay the same stored sequence from scratch.
	batch := NewDecayed(time.Hour)
	for _, m := range mentions {
		batch.Fold(mention(m.id, at(m.hour), m.tickers...))
	}

	sw := stream.WeightsAt(at(5))
	bw := batch.WeightsAt(at(5))
	if len(sw) != len(bw) {
		t.Fatalf("edge counts differ: %d vs %d", len(sw), len(bw))
	}
	for p, w := range sw {
		if bw[p] != w {
			t.Errorf("pair %v: stream %v, batch %v", p, w, bw[p])
		}
	}
}

func TestDecayed_ZeroHalfLifeNeverDecays(t *testing.T) {
	d := NewDecayed(0)
	d.Fold(mention("e1", at(0), "AAPL", "NVDA"))
	w := d.WeightsAt(at(10))[NewPair("AAPL", "NVDA")]
	if w != 1 {
		t.Errorf("weight = %v, want 1 with decay disabled", w)
	}
}
