package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewDB creates a new PostgreSQL connection pool.
func NewDB(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// RunMigrations executes the initial schema migration.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			email      TEXT NOT NULL UNIQUE,
			password   TEXT NOT NULL,
			role       TEXT NOT NULL DEFAULT 'client',
			name       TEXT NOT NULL DEFAULT '',
			phone      TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

		CREATE TABLE IF NOT EXISTS agencies (
			id            TEXT PRIMARY KEY,
			owner_user_id TEXT NOT NULL REFERENCES users(id),
			name          TEXT NOT NULL,
			city          TEXT NOT NULL,
			phone         TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS zones (
			id          TEXT PRIMARY KEY,
			agency_id   TEXT NOT NULL REFERENCES agencies(id),
			name        TEXT NOT NULL,
			district    TEXT NOT NULL,
			pickup_note TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_zones_agency ON zones(agency_id);

		CREATE TABLE IF NOT EXISTS employees (
			id         TEXT PRIMARY KEY,
			agency_id  TEXT NOT NULL REFERENCES agencies(id),
			user_id    TEXT NOT NULL REFERENCES users(id),
			job        TEXT NOT NULL,
			zone_id    TEXT REFERENCES zones(id),
			active     BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (agency_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_employees_agency ON employees(agency_id);

		CREATE TABLE IF NOT EXISTS clients (
			id                   TEXT PRIMARY KEY,
			user_id              TEXT NOT NULL UNIQUE REFERENCES users(id),
			address              TEXT NOT NULL,
			zone_id              TEXT REFERENCES zones(id),
			qr_token             TEXT NOT NULL UNIQUE,
			subscribed_agency_id TEXT REFERENCES agencies(id),
			created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_clients_qr_token ON clients(qr_token);

		CREATE TABLE IF NOT EXISTS client_subscription_history (
			id        BIGSERIAL PRIMARY KEY,
			client_id TEXT NOT NULL REFERENCES clients(id),
			date      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			status    TEXT NOT NULL,
			offer     TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_sub_history_client ON client_subscription_history(client_id);

		CREATE TABLE IF NOT EXISTS agency_clients (
			agency_id  TEXT NOT NULL REFERENCES agencies(id),
			client_id  TEXT NOT NULL REFERENCES clients(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (agency_id, client_id)
		);

		CREATE TABLE IF NOT EXISTS tariffs (
			id               TEXT PRIMARY KEY,
			agency_id        TEXT NOT NULL REFERENCES agencies(id),
			label            TEXT NOT NULL,
			plan             TEXT NOT NULL,
			price            BIGINT NOT NULL CHECK (price > 0),
			passes_per_month INT NOT NULL DEFAULT 0,
			description      TEXT NOT NULL DEFAULT '',
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_tariffs_agency ON tariffs(agency_id);

		CREATE TABLE IF NOT EXISTS wallets (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL UNIQUE REFERENCES users(id),
			balance    BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			kind       TEXT NOT NULL DEFAULT 'standard',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS transactions (
			id               TEXT PRIMARY KEY,
			actor_id         TEXT NOT NULL,
			amount           BIGINT NOT NULL CHECK (amount > 0),
			type             TEXT NOT NULL,
			source_wallet_id TEXT REFERENCES wallets(id),
			dest_wallet_id   TEXT NOT NULL REFERENCES wallets(id),
			status           TEXT NOT NULL,
			cause            TEXT NOT NULL DEFAULT '',
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_source ON transactions(source_wallet_id);
		CREATE INDEX IF NOT EXISTS idx_transactions_dest ON transactions(dest_wallet_id);

		CREATE TABLE IF NOT EXISTS subscriptions (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL REFERENCES users(id),
			agency_id        TEXT NOT NULL REFERENCES agencies(id),
			tariff_id        TEXT NOT NULL REFERENCES tariffs(id),
			plan             TEXT NOT NULL,
			total_amount     BIGINT NOT NULL,
			start_date       TIMESTAMPTZ NOT NULL,
			end_date         TIMESTAMPTZ NOT NULL,
			status           TEXT NOT NULL DEFAULT 'active',
			renewal_notified BOOLEAN NOT NULL DEFAULT FALSE,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_subscriptions_user ON subscriptions(user_id);
		CREATE INDEX IF NOT EXISTS idx_subscriptions_status_end ON subscriptions(status, end_date);

		CREATE TABLE IF NOT EXISTS collection_rounds (
			id           TEXT PRIMARY KEY,
			agency_id    TEXT NOT NULL REFERENCES agencies(id),
			zone_id      TEXT NOT NULL REFERENCES zones(id),
			collector_id TEXT NOT NULL REFERENCES employees(id),
			starts_at    TIMESTAMPTZ NOT NULL,
			ends_at      TIMESTAMPTZ NOT NULL,
			status       TEXT NOT NULL DEFAULT 'scheduled',
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_rounds_agency ON collection_rounds(agency_id);
		CREATE INDEX IF NOT EXISTS idx_rounds_status_end ON collection_rounds(status, ends_at);

		CREATE TABLE IF NOT EXISTS collection_scans (
			id           TEXT PRIMARY KEY,
			round_id     TEXT NOT NULL REFERENCES collection_rounds(id),
			client_id    TEXT NOT NULL REFERENCES clients(id),
			collector_id TEXT NOT NULL REFERENCES employees(id),
			scanned_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			note         TEXT NOT NULL DEFAULT '',
			UNIQUE (round_id, client_id)
		);
		CREATE INDEX IF NOT EXISTS idx_scans_round ON collection_scans(round_id);

		CREATE TABLE IF NOT EXISTS reports (
			id          TEXT PRIMARY KEY,
			reporter_id TEXT NOT NULL REFERENCES users(id),
			agency_id   TEXT NOT NULL REFERENCES agencies(id),
			kind        TEXT NOT NULL,
			subject     TEXT NOT NULL,
			body        TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT 'open',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_reports_agency ON reports(agency_id);

		CREATE TABLE IF NOT EXISTS notifications (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			message    TEXT NOT NULL,
			kind       TEXT NOT NULL,
			read       BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);

		CREATE TABLE IF NOT EXISTS kv_store (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			expires_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`
	_, err := pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
