package share

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS shared_games (
		id         text PRIMARY KEY,
		game       jsonb,
		bundle     text[],
		expires_at timestamptz,
		updated_at timestamptz NOT NULL DEFAULT now()
	)
`

// PostgresStore keeps entries in the shared_games table.
type PostgresStore struct {
	db  *pgxpool.Pool
	ttl time.Duration
}

// PostgresOptions tunes the connection pool.
type PostgresOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// ConnectPostgres opens a pool for dsn and checks it answers.
func ConnectPostgres(ctx context.Context, dsn string, opts PostgresOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// NewPostgresStore wraps db and creates the table when missing. A zero ttl
// keeps entries forever.
func NewPostgresStore(ctx context.Context, db *pgxpool.Pool, ttl time.Duration) (*PostgresStore, error) {
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("create shared_games table: %w", err)
	}
	return &PostgresStore{db: db, ttl: ttl}, nil
}

func (p *PostgresStore) expiry() *time.Time {
	if p.ttl <= 0 {
		return nil
	}
	t := time.Now().Add(p.ttl)
	return &t
}

func (p *PostgresStore) Put(ctx context.Context, id string, e Entry) error {
	query := `
		INSERT INTO shared_games (id, game, bundle, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE
		SET game = EXCLUDED.game, bundle = EXCLUDED.bundle,
		    expires_at = EXCLUDED.expires_at, updated_at = now()
	`
	var doc []byte
	if e.Game != nil {
		doc = e.Game
	}
	if _, err := p.db.Exec(ctx, query, id, doc, e.Bundle, p.expiry()); err != nil {
		return fmt.Errorf("failed to store entry %s: %w", id, err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (Entry, error) {
	query := `
		SELECT game, bundle FROM shared_games
		WHERE id = $1 AND (expires_at IS NULL OR expires_at > now())
	`
	var (
		doc    []byte
		bundle []string
	)
	err := p.db.QueryRow(ctx, query, id).Scan(&doc, &bundle)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to load entry %s: %w", id, err)
	}

	var e Entry
	if bundle != nil {
		e.Bundle = bundle
	} else {
		e.Game = doc
	}
	return e, nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM shared_games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Purge drops expired rows and reports how many went.
func (p *PostgresStore) Purge(ctx context.Context) (int64, error) {
	tag, err := p.db.Exec(ctx, `DELETE FROM shared_games WHERE expires_at IS NOT NULL AND expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired entries: %w", err)
	}
	return tag.RowsAffected(), nil
}
