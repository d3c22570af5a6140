package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultGDELTBaseURL = "https://api.gdeltproject.org/api/v2/doc/doc"

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 10
	DefaultMinConns  = 2

	DefaultGDELTInterval   = 15 * time.Minute
	DefaultGDELTWindow     = time.Hour
	DefaultGDELTMaxRecords = 250
	DefaultGDELTRateLimit  = 1.0

	DefaultRSSInterval = 15 * time.Minute

	DefaultTwitterInterval   = 20 * time.Second
	DefaultTwitterMaxResults = 100

	DefaultStreamReadTimeout = 30 * time.Second
	DefaultStreamBufferSize  = 1024

	DefaultRequestTimeout   = 10 * time.Second
	DefaultMinBackoff       = 5 * time.Second
	DefaultMaxBackoff       = 15 * time.Minute
	DefaultStreamRedialBase = 1 * time.Second
	DefaultStreamRedialMax  = 60 * time.Second

	DefaultMetricsPort = 9090
	DefaultMetricsPath = "/metrics"
)

func (c *CollectorConfig) applyDefaults() {
	applyDBDefaults(&c.Database.Postgres)

	// Reddit defaults
	if c.Sources.Reddit.ReadTimeout == 0 {
		c.Sources.Reddit.ReadTimeout = DefaultStreamReadTimeout
	}
	if c.Sources.Reddit.BufferSize == 0 {
		c.Sources.Reddit.BufferSize = DefaultStreamBufferSize
	}

	// GDELT defaults
	if c.Sources.GDELT.BaseURL == "" {
		c.Sources.GDELT.BaseURL = DefaultGDELTBaseURL
	}
	if c.Sources.GDELT.Interval == 0 {
		c.Sources.GDELT.Interval = DefaultGDELTInterval
	}
	if c.Sources.GDELT.Window == 0 {
		c.Sources.GDELT.Window = DefaultGDELTWindow
	}
	if c.Sources.GDELT.MaxRecords == 0 {
		c.Sources.GDELT.MaxRecords = DefaultGDELTMaxRecords
	}
	if c.Sources.GDELT.RateLimit == 0 {
		c.Sources.GDELT.RateLimit = DefaultGDELTRateLimit
	}

	// RSS defaults
	if c.Sources.RSS.Interval == 0 {
		c.Sources.RSS.Interval = DefaultRSSInterval
	}

	// Twitter defaults
	if c.Sources.Twitter.Interval == 0 {
		c.Sources.Twitter.Interval = DefaultTwitterInterval
	}
	if c.Sources.Twitter.MaxResults == 0 {
		c.Sources.Twitter.MaxResults = DefaultTwitterMaxResults
	}

	// Scheduler defaults
	if c.Scheduler.RequestTimeout == 0 {
		c.Scheduler.RequestTimeout = DefaultRequestTimeout
	}
	if c.Scheduler.MinBackoff == 0 {
		c.Scheduler.MinBackoff = DefaultMinBackoff
	}
	if c.Scheduler.MaxBackoff == 0 {
		c.Scheduler.MaxBackoff = DefaultMaxBackoff
	}
	if c.Scheduler.StreamRedialBase == 0 {
		c.Scheduler.StreamRedialBase = DefaultStreamRedialBase
	}
	if c.Scheduler.StreamRedialMax == 0 {
		c.Scheduler.StreamRedialMax = DefaultStreamRedialMax
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
