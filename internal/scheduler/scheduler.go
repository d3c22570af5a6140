package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/avcheng/market-attention/internal/bus"
	"github.com/avcheng/market-attention/internal/ingest"
	"github.com/avcheng/market-attention/internal/source"
)

// Config holds scheduler configuration.
type Config struct {
	MinBackoff       time.Duration // lower clamp for rate-limit suspension
	MaxBackoff       time.Duration // upper clamp for rate-limit suspension
	StreamRedialBase time.Duration // first redial delay after a stream failure
	StreamRedialMax  time.Duration // redial delay ceiling
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MinBackoff:       5 * time.Second,
		MaxBackoff:       15 * time.Minute,
		StreamRedialBase: time.Second,
		StreamRedialMax:  60 * time.Second,
	}
}

// Entry binds an adapter to its polling cadence. Interval is ignored for
// stream adapters, which collect continuously.
type Entry struct {
	Adapter  source.Adapter
	Interval time.Duration
}

// SourceStats is a snapshot of one adapter's counters.
type SourceStats struct {
	Cycles      int64
	Items       int64
	Matched     int64
	Inserted    int64
	Duplicates  int64
	Failures    int64
	LastSuccess time.Time
	Stopped     bool // set when the adapter was shut down (auth failure)
}

// Scheduler runs every configured adapter on its own loop. A failing adapter
// never delays or stops the others.
type Scheduler struct {
	cfg     Config
	proc    *ingest.Processor
	pub     bus.Publisher
	entries []Entry
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	g      *errgroup.Group

	mu    sync.Mutex
	stats map[string]*SourceStats
}

func New(cfg Config, proc *ingest.Processor, pub bus.Publisher, entries []Entry, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if pub == nil {
		pub = &bus.NoopPublisher{}
	}
	stats := make(map[string]*SourceStats, len(entries))
	for _, e := range entries {
		stats[e.Adapter.Name()] = &SourceStats{}
	}
	return &Scheduler{
		cfg:     cfg,
		proc:    proc,
		pub:     pub,
		entries: entries,
		logger:  logger,
		stats:   stats,
	}
}

// Start launches one goroutine per adapter. Poll adapters run an immediate
// first cycle, then repeat on their interval.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.g, _ = errgroup.WithContext(s.ctx)

	for _, e := range s.entries {
		entry := e
		s.g.Go(func() error {
			switch entry.Adapter.Mode() {
			case source.ModeStream:
				s.runStream(entry)
			default:
				s.runPoll(entry)
			}
			return nil
		})
	}

	s.logger.Info("scheduler started", "adapters", len(s.entries))
	return nil
}

// Stop cancels all adapter loops, waits for them to drain, then closes any
// adapter holding a connection.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		_ = s.g.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.closeAdapters()
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) closeAdapters() {
	for _, e := range s.entries {
		if c, ok := e.Adapter.(io.Closer); ok {
			if err := c.Close(); err != nil {
				s.logger.Warn("adapter close failed",
					"source", e.Adapter.Name(), "err", err)
			}
		}
	}
}

// Stats returns a copy of the per-adapter counters.
func (s *Scheduler) Stats() map[string]SourceStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]SourceStats, len(s.stats))
	for name, st := range s.stats {
		out[name] = *st
	}
	return out
}

// runPoll drives a poll adapter: collect, process, wait. A rate-limited
// result replaces the normal interval with a clamped suspension; the other
// adapters are unaffected.
func (s *Scheduler) runPoll(e Entry) {
	name := e.Adapter.Name()
	for {
		delay := e.Interval
		switch next := s.cycle(e); next.status {
		case source.StatusRateLimited:
			delay = s.clampBackoff(next.resetAt)
			s.logger.Warn("source rate limited, suspending",
				"source", name, "until", time.Now().Add(delay))
		case source.StatusAuthFailed:
			s.markStopped(name)
			s.logger.Error("source authentication failed, stopping adapter",
				"source", name)
			return
		}

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// runStream drives a stream adapter continuously. Failed cycles redial with
// exponential backoff; successful cycles reset it.
func (s *Scheduler) runStream(e Entry) {
	name := e.Adapter.Name()
	redial := s.cfg.StreamRedialBase

	for {
		if s.ctx.Err() != nil {
			return
		}

		var delay time.Duration
		switch next := s.cycle(e); next.status {
		case source.StatusOK:
			redial = s.cfg.StreamRedialBase
		case source.StatusFailed:
			delay = redial
			s.logger.Warn("stream cycle failed, redialing",
				"source", name, "delay", delay)
			redial *= 2
			if redial > s.cfg.StreamRedialMax {
				redial = s.cfg.StreamRedialMax
			}
		case source.StatusRateLimited:
			delay = s.clampBackoff(next.resetAt)
		case source.StatusAuthFailed:
			s.markStopped(name)
			s.logger.Error("stream authentication failed, stopping adapter",
				"source", name)
			return
		}

		if delay > 0 {
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(delay):
			}
		}
	}
}

type cycleOutcome struct {
	status  source.Status
	resetAt time.Time
}

// cycle runs one collect-and-process pass for the adapter.
func (s *Scheduler) cycle(e Entry) cycleOutcome {
	name := e.Adapter.Name()
	cycleID := uuid.NewString()
	start := time.Now()

	res := e.Adapter.Collect(s.ctx)

	switch res.Status {
	case source.StatusRateLimited:
		s.bump(name, func(st *SourceStats) { st.Cycles++ })
		return cycleOutcome{status: res.Status, resetAt: res.ResetAt}
	case source.StatusFailed:
		s.bump(name, func(st *SourceStats) { st.Cycles++; st.Failures++ })
		s.logger.Warn("collect failed",
			"source", name, "cycle_id", cycleID, "err", res.Err)
		return cycleOutcome{status: res.Status}
	case source.StatusAuthFailed:
		s.bump(name, func(st *SourceStats) { st.Cycles++; st.Failures++ })
		return cycleOutcome{status: res.Status}
	}

	stats, err := s.proc.Process(s.ctx, e.Adapter.Source(), res.Items)
	if err != nil {
		s.logger.Warn("processing had errors",
			"source", name, "cycle_id", cycleID, "err", err)
	}

	now := time.Now()
	s.bump(name, func(st *SourceStats) {
		st.Cycles++
		st.Items += int64(stats.Items)
		st.Matched += int64(stats.Matched)
		st.Inserted += int64(stats.Inserted)
		st.Duplicates += int64(stats.Duplicates)
		st.LastSuccess = now
	})

	if err := s.pub.Publish(s.ctx, bus.SubjectCycleCompleted, bus.CycleCompleted{
		CycleID:    cycleID,
		Source:     e.Adapter.Source(),
		Items:      stats.Items,
		Matched:    stats.Matched,
		Inserted:   stats.Inserted,
		Duplicates: stats.Duplicates,
		FinishedAt: now,
	}); err != nil {
		s.logger.Warn("publish cycle event failed", "source", name, "err", err)
	}

	s.logger.Debug("cycle complete",
		"source", name,
		"cycle_id", cycleID,
		"items", stats.Items,
		"inserted", stats.Inserted,
		"duplicates", stats.Duplicates,
		"duration", time.Since(start),
	)
	return cycleOutcome{status: source.StatusOK}
}

// clampBackoff converts a rate-limit reset hint into a sleep bounded by
// [MinBackoff, MaxBackoff]. A zero or past reset uses the minimum.
func (s *Scheduler) clampBackoff(resetAt time.Time) time.Duration {
	d := time.Until(resetAt)
	if d < s.cfg.MinBackoff {
		return s.cfg.MinBackoff
	}
	if d > s.cfg.MaxBackoff {
		return s.cfg.MaxBackoff
	}
	return d
}

func (s *Scheduler) bump(name string, fn func(*SourceStats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stats[name]; ok {
		fn(st)
	}
}

func (s *Scheduler) markStopped(name string) {
	s.bump(name, func(st *SourceStats) { st.Stopped = true })
}
