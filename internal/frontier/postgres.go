package frontier

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/postgres"
)

var migrations = []postgres.Migration{
	{Version: 1, Name: "frontier_urls", SQL: `CREATE TABLE IF NOT EXISTS frontier_urls (
		url_key    TEXT PRIMARY KEY,
		url        TEXT NOT NULL,
		seq        BIGSERIAL,
		fetched_at TIMESTAMPTZ
	)`},
	{Version: 2, Name: "frontier_urls_pending", SQL: `CREATE INDEX IF NOT EXISTS frontier_urls_pending
		ON frontier_urls (seq) WHERE fetched_at IS NULL`},
}

// Postgres is a frontier stored in PostgreSQL. A crawl that stops early
// resumes from the pending rows on the next run.
type Postgres struct {
	client *postgres.Client
	logger *slog.Logger
}

// NewPostgres creates the frontier table if needed and queues seeds.
func NewPostgres(ctx context.Context, client *postgres.Client, seeds ...string) (*Postgres, error) {
	if _, err := client.Migrate(ctx, migrations...); err != nil {
		return nil, fmt.Errorf("migrating frontier schema: %w", err)
	}
	p := &Postgres{
		client: client,
		logger: slog.Default().With("component", "postgres-frontier"),
	}
	for _, s := range seeds {
		if err := p.AddURL(ctx, s); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Postgres) HasNextURL(ctx context.Context) (bool, error) {
	var pending bool
	err := p.client.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM frontier_urls WHERE fetched_at IS NULL)`,
	).Scan(&pending)
	if err != nil {
		return false, fmt.Errorf("checking frontier: %w", err)
	}
	return pending, nil
}

func (p *Postgres) NextURL(ctx context.Context) (string, error) {
	var next string
	err := p.client.DB.QueryRowContext(ctx,
		`UPDATE frontier_urls SET fetched_at = NOW()
		 WHERE url_key = (
			SELECT url_key FROM frontier_urls
			WHERE fetched_at IS NULL
			ORDER BY seq
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING url`,
	).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrEmpty
	}
	if err != nil {
		return "", fmt.Errorf("dequeuing url: %w", err)
	}
	return next, nil
}

func (p *Postgres) AddURL(ctx context.Context, rawURL string) error {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return nil
	}
	res, err := p.client.DB.ExecContext(ctx,
		`INSERT INTO frontier_urls (url_key, url) VALUES ($1, $2)
		 ON CONFLICT (url_key) DO NOTHING`,
		Key(u), u,
	)
	if err != nil {
		return fmt.Errorf("queuing %s: %w", u, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		p.logger.Debug("url queued", "url", u)
	}
	return nil
}

func (p *Postgres) Counts(ctx context.Context) (int, int, error) {
	var fetched, pending int
	err := p.client.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FILTER (WHERE fetched_at IS NOT NULL),
		        COUNT(*) FILTER (WHERE fetched_at IS NULL)
		 FROM frontier_urls`,
	).Scan(&fetched, &pending)
	if err != nil {
		return 0, 0, fmt.Errorf("counting frontier: %w", err)
	}
	return fetched, pending, nil
}

// Reset forgets every queued and fetched URL.
func (p *Postgres) Reset(ctx context.Context) error {
	if _, err := p.client.DB.ExecContext(ctx, `TRUNCATE frontier_urls`); err != nil {
		return fmt.Errorf("resetting frontier: %w", err)
	}
	return nil
}
