// Package postgres stores items, bookings and the outbox in PostgreSQL through pgx.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pool and checks it with a ping.
func Connect(ctx context.Context, dsn string, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if logger != nil {
		logger.Info("postgres connected", "database", pool.Config().ConnConfig.Database)
	}
	return pool, nil
}

// The primary key of booking_days is the (item, day) claim: two live bookings can never
// hold the same day of one item.
const schema = `
CREATE TABLE IF NOT EXISTS items (
	id                  TEXT PRIMARY KEY,
	owner_uid           TEXT NOT NULL,
	title               TEXT NOT NULL,
	category            TEXT NOT NULL DEFAULT '',
	city                TEXT NOT NULL DEFAULT '',
	price_per_day_cents BIGINT NOT NULL CHECK (price_per_day_cents >= 0),
	available_from      INTEGER NULL,
	available_to        INTEGER NULL,
	rating_avg          DOUBLE PRECISION NOT NULL DEFAULT 0,
	rating_count        INTEGER NOT NULL DEFAULT 0,
	state               TEXT NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL,
	version             BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner_uid);

CREATE TABLE IF NOT EXISTS bookings (
	id                  TEXT PRIMARY KEY,
	item_id             TEXT NOT NULL REFERENCES items(id),
	item_title          TEXT NOT NULL,
	owner_uid           TEXT NOT NULL,
	renter_uid          TEXT NOT NULL,
	days                INTEGER[] NOT NULL,
	price_per_day_cents BIGINT NOT NULL,
	total_cents         BIGINT NOT NULL,
	status              TEXT NOT NULL,
	rating_score        INTEGER NULL,
	rating_comment      TEXT NULL,
	rating_rater_uid    TEXT NULL,
	rating_created_at   TIMESTAMPTZ NULL,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL,
	expires_at          TIMESTAMPTZ NOT NULL,
	version             BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bookings_renter ON bookings(renter_uid, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_bookings_owner ON bookings(owner_uid, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_bookings_pending ON bookings(status, expires_at);

CREATE TABLE IF NOT EXISTS booking_days (
	item_id    TEXT NOT NULL,
	day        INTEGER NOT NULL,
	booking_id TEXT NOT NULL REFERENCES bookings(id),
	PRIMARY KEY (item_id, day)
);
CREATE INDEX IF NOT EXISTS idx_booking_days_booking ON booking_days(booking_id);

CREATE TABLE IF NOT EXISTS outbox (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	aggregate       TEXT NOT NULL,
	payload         JSONB NOT NULL,
	headers         JSONB NOT NULL DEFAULT '{}',
	occurred_at     TIMESTAMPTZ NOT NULL,
	state           TEXT NOT NULL DEFAULT 'NEW',
	attempts        INTEGER NOT NULL DEFAULT 0,
	next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	claimed_by      TEXT NOT NULL DEFAULT '',
	claimed_at      TIMESTAMPTZ NULL,
	last_error      TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	sent_at         TIMESTAMPTZ NULL
);
CREATE INDEX IF NOT EXISTS idx_outbox_due ON outbox(state, next_attempt_at);
`

// EnsureSchema creates the tables if they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}
