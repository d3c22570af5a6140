package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/avcheng/market-attention/internal/config"
	"github.com/avcheng/market-attention/internal/graph"
	"github.com/avcheng/market-attention/internal/store"
)

// graphdump replays stored mentions over a window and prints co-mention
// graph snapshots as JSON. With -half-life it additionally prints the
// decayed running state at the window's end.
func main() {
	configPath := flag.String("config", "configs/collector.local.yaml", "path to config file")
	startFlag := flag.String("start", "", "window start (RFC 3339), default end-24h")
	endFlag := flag.String("end", "", "window end (RFC 3339), default now")
	window := flag.Duration("window", time.Hour, "snapshot window size")
	step := flag.Duration("step", time.Hour, "snapshot step")
	halfLife := flag.Duration("half-life", 0, "also print decayed weights with this half-life")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	end := time.Now().UTC().Truncate(time.Hour).Add(time.Hour)
	if *endFlag != "" {
		end, err = time.Parse(time.RFC3339, *endFlag)
		if err != nil {
			logger.Error("invalid -end", "error", err)
			os.Exit(1)
		}
	}
	start := end.Add(-24 * time.Hour)
	if *startFlag != "" {
		start, err = time.Parse(time.RFC3339, *startFlag)
		if err != nil {
			logger.Error("invalid -start", "error", err)
			os.Exit(1)
		}
	}
	if !start.Before(end) {
		logger.Error("start must precede end", "start", start, "end", end)
		os.Exit(1)
	}
	if *window <= 0 || *step <= 0 {
		logger.Error("window and step must be positive", "window", *window, "step", *step)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	st, err := store.NewPostgres(ctx, cfg.Database.Postgres)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	mentions, err := st.QueryWindow(ctx, start, end)
	if err != nil {
		logger.Error("query failed", "error", err)
		os.Exit(1)
	}
	logger.Info("replaying stored mentions",
		"start", start, "end", end, "events", len(mentions))

	snaps := graph.BuildWindows(mentions, start, end, *window, *step)
	out := struct {
		Snapshots []graph.Export     `json:"snapshots"`
		Decayed   map[string]float64 `json:"decayed,omitempty"`
		Volumes   map[string]float64 `json:"decayed_volumes,omitempty"`
	}{}
	for _, snap := range snaps {
		out.Snapshots = append(out.Snapshots, snap.Export())
	}

	if *halfLife > 0 {
		d := graph.NewDecayed(*halfLife)
		for _, m := range mentions {
			d.Fold(m)
		}
		out.Decayed = make(map[string]float64)
		for p, w := range d.WeightsAt(end) {
			out.Decayed[fmt.Sprintf("%s-%s", p.A, p.B)] = w
		}
		out.Volumes = d.VolumesAt(end)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("encode failed", "error", err)
		os.Exit(1)
	}
}
