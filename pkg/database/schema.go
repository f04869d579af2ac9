package database

import (
	"database/sql"
	"fmt"
)

// BaselineSchema is the embedded schema applied when no migrations directory
// is present (tests, fresh single-binary deployments). File-based migrations
// in MigrationsPath take precedence when the directory exists.
//
// The games CHECK constraints encode the admission invariants: a pending game
// never has a receiver, and a player cannot be admitted into their own game.
const BaselineSchema = `
CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	sender_id TEXT NOT NULL,
	receiver_id TEXT,
	status TEXT NOT NULL DEFAULT 'pending'
		CHECK (status IN ('pending', 'active', 'completed', 'abandoned')),
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	CHECK (NOT (status = 'pending' AND receiver_id IS NOT NULL)),
	CHECK (receiver_id IS NULL OR receiver_id <> sender_id)
);

CREATE INDEX IF NOT EXISTS idx_games_status ON games(status);
CREATE INDEX IF NOT EXISTS idx_games_sender ON games(sender_id);
CREATE INDEX IF NOT EXISTS idx_games_status_created ON games(status, created_at);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT ''
);
`

// SchemaValidator checks that a database matches the expected structure.
type SchemaValidator struct {
	db *sql.DB
}

func NewSchemaValidator(db *sql.DB) *SchemaValidator {
	return &SchemaValidator{db: db}
}

// ValidateTablesExist verifies that all required tables exist.
func (v *SchemaValidator) ValidateTablesExist() error {
	requiredTables := map[string]string{
		"games":             "Game session storage",
		"users":             "Verified identity storage",
		"schema_migrations": "Migration tracking",
	}

	for table, description := range requiredTables {
		exists, err := v.tableExists(table)
		if err != nil {
			return fmt.Errorf("error checking table %s (%s): %w", table, description, err)
		}
		if !exists {
			return fmt.Errorf("required table %s (%s) does not exist", table, description)
		}
	}

	return nil
}

// ValidateIndexes verifies that the query-path indexes exist.
func (v *SchemaValidator) ValidateIndexes() error {
	requiredIndexes := map[string]string{
		"idx_games_status":         "Status lookups",
		"idx_games_sender":         "Creator queries",
		"idx_games_status_created": "Stale-game sweep",
	}

	for index, purpose := range requiredIndexes {
		exists, err := v.indexExists(index)
		if err != nil {
			return fmt.Errorf("error checking index %s (%s): %w", index, purpose, err)
		}
		if !exists {
			return fmt.Errorf("required index %s (%s) does not exist", index, purpose)
		}
	}

	return nil
}

func (v *SchemaValidator) tableExists(tableName string) (bool, error) {
	var count int
	err := v.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
		tableName,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (v *SchemaValidator) indexExists(indexName string) (bool, error) {
	var count int
	err := v.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?",
		indexName,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
