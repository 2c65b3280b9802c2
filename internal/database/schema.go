package database

import (
	"database/sql"
	"fmt"
	"log"
)

// The resolution and refund-link uniqueness constraints below are load
// bearing: the ledger engine relies on their violation errors to decide
// who lost a resolution or refund race.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		first_name VARCHAR(256),
		surname VARCHAR(256),
		email VARCHAR(120) NOT NULL UNIQUE,
		credential_hash VARCHAR(256) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS balances (
		user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		amount DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id SERIAL PRIMARY KEY,
		reference UUID NOT NULL UNIQUE,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		receiver_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
		amount DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_receiver_id ON transactions (receiver_id)`,
	`CREATE TABLE IF NOT EXISTS resolutions (
		transaction_id INTEGER PRIMARY KEY REFERENCES transactions(id) ON DELETE CASCADE,
		status VARCHAR(16) NOT NULL,
		resolved_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS refunds (
		transaction_id INTEGER PRIMARY KEY REFERENCES transactions(id) ON DELETE CASCADE,
		linked_transaction_id INTEGER NOT NULL UNIQUE REFERENCES transactions(id) ON DELETE CASCADE
	)`,
}

// Migrate applies the schema at startup.
func Migrate(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	log.Println("Database schema up to date")
	return nil
}
