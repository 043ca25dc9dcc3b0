package store

import (
	"fmt"

	"github.com/pocketbase/dbx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id                     TEXT PRIMARY KEY NOT NULL,
		organizer_id           TEXT NOT NULL,
		title                  TEXT NOT NULL,
		description            TEXT NOT NULL DEFAULT '',
		game                   TEXT NOT NULL,
		start_time             TEXT NOT NULL,
		end_time               TEXT NOT NULL,
		bracket_type           TEXT NOT NULL DEFAULT 'single_elimination',
		organizer_checkout_url TEXT NOT NULL DEFAULT '',
		max_teams              INTEGER NULL,
		current_teams          INTEGER NOT NULL DEFAULT 0,
		status                 TEXT NOT NULL DEFAULT 'draft',
		created                TEXT NOT NULL,
		updated                TEXT NOT NULL,
		CHECK (max_teams IS NULL OR current_teams <= max_teams)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_organizer ON events (organizer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_status ON events (status)`,

	`CREATE TABLE IF NOT EXISTS tickets (
		id                   TEXT PRIMARY KEY NOT NULL,
		event_id             TEXT NOT NULL,
		user_id              TEXT NOT NULL,
		status               TEXT NOT NULL DEFAULT 'pending',
		external_payment_ref TEXT NOT NULL,
		amount               TEXT NULL,
		purchased_at         TEXT NOT NULL,
		paid_at              TEXT NOT NULL DEFAULT '',
		updated              TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_tickets_payment_ref ON tickets (external_payment_ref)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_tickets_event_user ON tickets (event_id, user_id) WHERE status != 'cancelled'`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_user ON tickets (user_id)`,

	`CREATE TABLE IF NOT EXISTS matches (
		id             TEXT PRIMARY KEY NOT NULL,
		event_id       TEXT NOT NULL,
		round          INTEGER NOT NULL,
		match_number   INTEGER NOT NULL,
		slot           INTEGER NOT NULL,
		player1_id     TEXT NOT NULL DEFAULT '',
		player2_id     TEXT NOT NULL DEFAULT '',
		player1_score  INTEGER NULL,
		player2_score  INTEGER NULL,
		winner_id      TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL DEFAULT 'pending',
		is_bye         BOOLEAN NOT NULL DEFAULT FALSE,
		next_match_id  TEXT NOT NULL DEFAULT '',
		next_slot      INTEGER NOT NULL DEFAULT 0,
		scheduled_time TEXT NOT NULL DEFAULT '',
		completed_at   TEXT NOT NULL DEFAULT '',
		created        TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_matches_event_number ON matches (event_id, match_number)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_event_round ON matches (event_id, round, slot)`,
}

var dropSchema = []string{
	`DROP TABLE IF EXISTS matches`,
	`DROP TABLE IF EXISTS tickets`,
	`DROP TABLE IF EXISTS events`,
}

// CreateSchema creates the events, tickets and matches tables.
func CreateSchema(db dbx.Builder) error {
	for _, stmt := range schema {
		if _, err := db.NewQuery(stmt).Execute(); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// DropSchema removes the tables created by CreateSchema.
func DropSchema(db dbx.Builder) error {
	for _, stmt := range dropSchema {
		if _, err := db.NewQuery(stmt).Execute(); err != nil {
			return fmt.Errorf("drop schema: %w", err)
		}
	}
	return nil
}
