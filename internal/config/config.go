package config

import (
	"time"

	"github.com/avcheng/market-attention/internal/model"
)

// CollectorConfig is the root configuration for a collector instance.
type CollectorConfig struct {
	Instance  InstanceConfig   `yaml:"instance"`
	Watchlist []WatchlistEntry `yaml:"watchlist"`
	Database  DatabaseConfig   `yaml:"database"`
	Sources   SourcesConfig    `yaml:"sources"`
	Scheduler SchedulerConfig  `yaml:"scheduler"`
	Bus       BusConfig        `yaml:"bus"`
	Metrics   MetricsConfig    `yaml:"metrics"`
}

// InstanceConfig identifies this collector.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// WatchlistEntry maps one canonical entity name to its ticker symbol.
type WatchlistEntry struct {
	Name   string `yaml:"name"`
	Symbol string `yaml:"symbol"`
}

// BuildWatchlist converts the configured entries into an immutable watch-list.
func (c *CollectorConfig) BuildWatchlist() (model.Watchlist, error) {
	entries := make(map[string]string, len(c.Watchlist))
	for _, e := range c.Watchlist {
		entries[e.Name] = e.Symbol
	}
	return model.NewWatchlist(entries)
}

// DatabaseConfig holds the analytical store connection.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// SourcesConfig holds per-source adapter settings. A disabled source is
// simply never scheduled; the rest of the pipeline is unaffected.
type SourcesConfig struct {
	Reddit  RedditConfig  `yaml:"reddit"`
	GDELT   GDELTConfig   `yaml:"gdelt"`
	RSS     RSSConfig     `yaml:"rss"`
	Twitter TwitterConfig `yaml:"twitter"`
}

// RedditConfig holds the social-stream subscription settings.
type RedditConfig struct {
	Enabled       bool          `yaml:"enabled"`
	StreamURL     string        `yaml:"stream_url"`
	Subreddits    []string      `yaml:"subreddits"`
	ClientID      string        `yaml:"client_id"`
	ClientSecret  string        `yaml:"client_secret"`
	ReplayBacklog bool          `yaml:"replay_backlog"` // false = skip items published before subscribing
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	BufferSize    int           `yaml:"buffer_size"`
}

// GDELTConfig holds the global-news poller settings.
type GDELTConfig struct {
	Enabled    bool          `yaml:"enabled"`
	BaseURL    string        `yaml:"base_url"`
	Interval   time.Duration `yaml:"interval"`
	Window     time.Duration `yaml:"window"` // [now-window, now) per cycle
	MaxRecords int           `yaml:"max_records"`
	RateLimit  float64       `yaml:"rate_limit"` // requests per second, 0 = default
}

// RSSConfig holds the feed poller settings.
type RSSConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Feeds    []string      `yaml:"feeds"`
}

// TwitterConfig holds the microblog poller settings.
type TwitterConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BaseURL       string        `yaml:"base_url"`
	Interval      time.Duration `yaml:"interval"`
	SessionCookie string        `yaml:"session_cookie"`
	MinFollowers  int64         `yaml:"min_followers"`
	MaxResults    int           `yaml:"max_results"`
}

// SchedulerConfig holds cadence-independent scheduler settings.
type SchedulerConfig struct {
	RequestTimeout   time.Duration `yaml:"request_timeout"`    // bound on every network call
	MinBackoff       time.Duration `yaml:"min_backoff"`        // clamp for rate-limit sleeps
	MaxBackoff       time.Duration `yaml:"max_backoff"`        // clamp for rate-limit sleeps
	StreamRedialBase time.Duration `yaml:"stream_redial_base"` // backoff after stream failures
	StreamRedialMax  time.Duration `yaml:"stream_redial_max"`
}

// BusConfig holds the downstream fan-out settings. Empty URL disables
// publishing (a no-op publisher is wired instead).
type BusConfig struct {
	URL string `yaml:"url"`
}

// MetricsConfig holds the health/stats endpoint settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
