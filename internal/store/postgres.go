package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/avcheng/market-attention/internal/config"
	"github.com/avcheng/market-attention/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Postgres implements Store backed by PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// NewPostgres connects to the database, runs pending migrations, and returns
// a ready store.
func NewPostgres(ctx context.Context, cfg config.DBConfig) (*Postgres, error) {
	connStr := BuildConnString(cfg)

	if err := runMigrations(connStr); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// runMigrations applies embedded migrations over a short-lived database/sql
// handle. The pgx pool is opened afterwards.
func runMigrations(connStr string) error {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "pgx", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// InsertEvent writes the event unless its id already exists.
func (p *Postgres) InsertEvent(ctx context.Context, event model.MentionEvent) (InsertStatus, error) {
	tag, err := p.pool.Exec(ctx, `
		INSERT INTO mention_events (id, title, ts, source, influence)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		event.ID, event.Title, event.Timestamp.UTC(), string(event.Source), event.Influence,
	)
	if err != nil {
		return StatusDuplicate, fmt.Errorf("insert event %s: %w", event.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return StatusDuplicate, nil
	}
	return StatusInserted, nil
}

// InsertMentions writes mention rows, skipping existing (event_id, ticker)
// pairs. ON CONFLICT DO NOTHING makes concurrent inserts of the same pair
// converge on exactly one row.
func (p *Postgres) InsertMentions(ctx context.Context, eventID string, tickers []string) (int, error) {
	if len(tickers) == 0 {
		return 0, nil
	}

	tag, err := p.pool.Exec(ctx, `
		INSERT INTO ticker_mentions (event_id, ticker)
		SELECT $1, unnest($2::text[])
		ON CONFLICT (event_id, ticker) DO NOTHING`,
		eventID, tickers,
	)
	if err != nil {
		return 0, fmt.Errorf("insert mentions for %s: %w", eventID, err)
	}
	return int(tag.RowsAffected()), nil
}

// QueryWindow returns events and their tickers within [start, end), ordered
// by timestamp ascending.
func (p *Postgres) QueryWindow(ctx context.Context, start, end time.Time) ([]StoredMention, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT e.id, e.title, e.ts, e.source, e.influence, m.ticker
		FROM mention_events e
		JOIN ticker_mentions m ON m.event_id = e.id
		WHERE e.ts >= $1 AND e.ts < $2
		ORDER BY e.ts, e.id, m.ticker`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query window: %w", err)
	}
	defer rows.Close()

	var (
		result  []StoredMention
		current *StoredMention
	)

	for rows.Next() {
		var (
			event     model.MentionEvent
			source    string
			influence *int64
			ticker    string
		)
		if err := rows.Scan(&event.ID, &event.Title, &event.Timestamp, &source, &influence, &ticker); err != nil {
			return nil, fmt.Errorf("scan mention row: %w", err)
		}
		event.Source = model.Source(source)
		event.Influence = influence
		event.Timestamp = event.Timestamp.UTC()

		if current == nil || current.Event.ID != event.ID {
			result = append(result, StoredMention{Event: event})
			current = &result[len(result)-1]
		}
		current.Tickers = append(current.Tickers, ticker)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mention rows: %w", err)
	}

	return result, nil
}

// CountEvents returns the total number of stored events.
func (p *Postgres) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM mention_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// VolumeByTicker returns per-ticker mention counts within [start, end).
func (p *Postgres) VolumeByTicker(ctx context.Context, start, end time.Time) (map[string]int64, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT m.ticker, count(*)
		FROM ticker_mentions m
		JOIN mention_events e ON e.id = m.event_id
		WHERE e.ts >= $1 AND e.ts < $2
		GROUP BY m.ticker`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query volumes: %w", err)
	}
	defer rows.Close()

	volumes := make(map[string]int64)
	for rows.Next() {
		var (
			ticker string
			count  int64
		)
		if err := rows.Scan(&ticker, &count); err != nil {
			return nil, fmt.Errorf("scan volume row: %w", err)
		}
		volumes[ticker] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate volume rows: %w", err)
	}

	return volumes, nil
}

// Ping verifies the connection is healthy.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
