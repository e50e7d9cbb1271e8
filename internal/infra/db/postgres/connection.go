package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// NewPgxPool creates a pgx connection pool and verifies connectivity.
func NewPgxPool(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Migrate creates the three ledger record sets if they do not exist.
// Uniqueness constraints live here; all business rules live above.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	const schema = `
CREATE TABLE IF NOT EXISTS users (
    telegram_id       BIGINT PRIMARY KEY,
    first_name        TEXT NOT NULL DEFAULT '',
    last_name         TEXT NOT NULL DEFAULT '',
    username          TEXT NOT NULL DEFAULT '',
    joined_ok         BOOLEAN NOT NULL DEFAULT FALSE,
    total_participate INT NOT NULL DEFAULT 0,
    win_record        INT NOT NULL DEFAULT 0,
    created_at        TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS redeem_codes (
    code       TEXT PRIMARY KEY,
    expires_at TIMESTAMPTZ,
    max_uses   INT NOT NULL,
    uses       INT NOT NULL DEFAULT 0,
    created_by BIGINT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    CHECK (uses <= max_uses)
);

CREATE TABLE IF NOT EXISTS redemptions (
    id          TEXT PRIMARY KEY,
    telegram_id BIGINT NOT NULL,
    code        TEXT NOT NULL REFERENCES redeem_codes(code),
    redeemed_at TIMESTAMPTZ NOT NULL,
    UNIQUE (telegram_id, code)
);
`
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
