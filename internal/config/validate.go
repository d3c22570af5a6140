package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks that all required fields are set and values are valid.
func (c *CollectorConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if len(c.Watchlist) == 0 {
		return errors.New("watchlist must have at least one entry")
	}
	if _, err := c.BuildWatchlist(); err != nil {
		return fmt.Errorf("watchlist: %w", err)
	}

	if err := c.Database.Postgres.validate("database.postgres"); err != nil {
		return err
	}

	s := c.Sources
	if !s.Reddit.Enabled && !s.GDELT.Enabled && !s.RSS.Enabled && !s.Twitter.Enabled {
		return errors.New("at least one source must be enabled")
	}

	if s.Reddit.Enabled {
		if s.Reddit.StreamURL == "" {
			return errors.New("sources.reddit.stream_url is required when enabled")
		}
		if len(s.Reddit.Subreddits) == 0 {
			return errors.New("sources.reddit.subreddits must have at least one entry")
		}
	}
	if s.GDELT.Enabled {
		if err := validateInterval("sources.gdelt.interval", s.GDELT.Interval); err != nil {
			return err
		}
		if s.GDELT.MaxRecords < 1 {
			return errors.New("sources.gdelt.max_records must be >= 1")
		}
	}
	if s.RSS.Enabled {
		if err := validateInterval("sources.rss.interval", s.RSS.Interval); err != nil {
			return err
		}
		if len(s.RSS.Feeds) == 0 {
			return errors.New("sources.rss.feeds must have at least one entry")
		}
	}
	if s.Twitter.Enabled {
		if err := validateInterval("sources.twitter.interval", s.Twitter.Interval); err != nil {
			return err
		}
		if s.Twitter.BaseURL == "" {
			return errors.New("sources.twitter.base_url is required when enabled")
		}
		if s.Twitter.MinFollowers < 0 {
			return errors.New("sources.twitter.min_followers must be >= 0")
		}
	}

	if c.Scheduler.MinBackoff > c.Scheduler.MaxBackoff {
		return fmt.Errorf("scheduler.min_backoff (%s) cannot exceed max_backoff (%s)",
			c.Scheduler.MinBackoff, c.Scheduler.MaxBackoff)
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func validateInterval(field string, d time.Duration) error {
	if d < time.Second {
		return fmt.Errorf("%s must be >= 1s, got %s", field, d)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
