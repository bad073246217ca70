// Package sqlschema creates the PostgreSQL tables of the identity store.
//
// Statements are idempotent (IF NOT EXISTS) so Ensure can run on every
// startup, the same way indexes.EnsureAll does for MongoDB.
package sqlschema

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                 UUID PRIMARY KEY,
		email              TEXT NOT NULL,
		username           TEXT NOT NULL,
		first_name         TEXT NOT NULL DEFAULT '',
		last_name          TEXT NOT NULL DEFAULT '',
		password_hash      TEXT NOT NULL,
		phone              TEXT NOT NULL DEFAULT '',
		user_type          TEXT NOT NULL DEFAULT 'buyer'
		                   CHECK (user_type IN ('buyer', 'seller', 'agent')),
		bio                TEXT NOT NULL DEFAULT '',
		location           TEXT NOT NULL DEFAULT '',
		company_name       TEXT NOT NULL DEFAULT '',
		license_number     TEXT NOT NULL DEFAULT '',
		website            TEXT NOT NULL DEFAULT '',
		preferred_contact  TEXT NOT NULL DEFAULT 'email'
		                   CHECK (preferred_contact IN ('email', 'phone', 'both')),
		is_active          BOOLEAN NOT NULL DEFAULT TRUE,
		is_staff           BOOLEAN NOT NULL DEFAULT FALSE,
		is_verified        BOOLEAN NOT NULL DEFAULT FALSE,
		is_phone_verified  BOOLEAN NOT NULL DEFAULT FALSE,
		is_email_verified  BOOLEAN NOT NULL DEFAULT FALSE,
		show_contact_info  BOOLEAN NOT NULL DEFAULT TRUE,
		receive_marketing  BOOLEAN NOT NULL DEFAULT TRUE,
		last_login         TIMESTAMPTZ NULL,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_username_key ON users (username)`,
	`CREATE INDEX IF NOT EXISTS users_phone_idx ON users (phone) WHERE phone <> ''`,

	`CREATE TABLE IF NOT EXISTS user_profiles (
		user_id            UUID PRIMARY KEY REFERENCES users(id),
		properties_posted  INTEGER NOT NULL DEFAULT 0 CHECK (properties_posted >= 0),
		properties_sold    INTEGER NOT NULL DEFAULT 0 CHECK (properties_sold >= 0),
		inquiries_received INTEGER NOT NULL DEFAULT 0 CHECK (inquiries_received >= 0),
		preferences        JSONB NOT NULL DEFAULT '{}'::jsonb,
		social_links       JSONB NOT NULL DEFAULT '{}'::jsonb,
		saved_searches     JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS favorites (
		id             BIGSERIAL PRIMARY KEY,
		user_id        UUID NOT NULL REFERENCES users(id),
		property_id    TEXT NOT NULL,
		property_title TEXT NOT NULL DEFAULT '',
		property_price DOUBLE PRECISION NOT NULL DEFAULT 0,
		added_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS favorites_user_property_key ON favorites (user_id, property_id)`,
	`CREATE INDEX IF NOT EXISTS favorites_user_added_idx ON favorites (user_id, added_at DESC)`,
}

// Ensure applies every statement in order.
func Ensure(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
