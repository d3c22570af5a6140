package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/avcheng/market-attention/internal/model"
)

// Memory is an in-memory Store used by tests and dry runs. It enforces the
// same dedup semantics as the Postgres implementation.
type Memory struct {
	mu       sync.RWMutex
	events   map[string]model.MentionEvent
	mentions map[string]map[string]bool // event id -> ticker set
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		events:   make(map[string]model.MentionEvent),
		mentions: make(map[string]map[string]bool),
	}
}

func (m *Memory) InsertEvent(_ context.Context, event model.MentionEvent) (InsertStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.events[event.ID]; exists {
		return StatusDuplicate, nil
	}
	event.Timestamp = event.Timestamp.UTC()
	m.events[event.ID] = event
	return StatusInserted, nil
}

func (m *Memory) InsertMentions(_ context.Context, eventID string, tickers []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.mentions[eventID]
	if set == nil {
		set = make(map[string]bool)
		m.mentions[eventID] = set
	}

	inserted := 0
	for _, t := range tickers {
		if !set[t] {
			set[t] = true
			inserted++
		}
	}
	return inserted, nil
}

func (m *Memory) QueryWindow(_ context.Context, start, end time.Time) ([]StoredMention, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []StoredMention
	for id, event := range m.events {
		if event.Timestamp.Before(start) || !event.Timestamp.Before(end) {
			continue
		}
		set := m.mentions[id]
		if len(set) == 0 {
			continue
		}
		tickers := make([]string, 0, len(set))
		for t := range set {
			tickers = append(tickers, t)
		}
		sort.Strings(tickers)
		result = append(result, StoredMention{Event: event, Tickers: tickers})
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].Event, result[j].Event
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.ID < b.ID
	})

	return result, nil
}

func (m *Memory) CountEvents(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.events)), nil
}

func (m *Memory) VolumeByTicker(_ context.Context, start, end time.Time) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	volumes := make(map[string]int64)
	for id, event := range m.events {
		if event.Timestamp.Before(start) || !event.Timestamp.Before(end) {
			continue
		}
		for t := range m.mentions[id] {
			volumes[t]++
		}
	}
	return volumes, nil
}

func (m *Memory) Close() error {
	return nil
}
