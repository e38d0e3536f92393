package db

import (
	"fmt"
	"log/slog"
	"strings"
)

// RunMigrations applies any pending database migrations
func (db *DB) RunMigrations() error {
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("ensuring kv table: %w", err)
	}

	if err := db.runRevisionMigration(); err != nil {
		return err
	}

	return nil
}

// runRevisionMigration adds the revision and writer columns to tables
// created before external-change detection existed
func (db *DB) runRevisionMigration() error {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*)
		FROM pragma_table_info('kv')
		WHERE name IN ('revision', 'writer', 'updated_at')
	`).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking for revision columns: %w", err)
	}

	if count == 3 {
		return nil
	}

	slog.Info("running migration: adding revision columns", "path", db.path)

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	columns := []struct {
		name       string
		definition string
	}{
		{"revision", "INTEGER NOT NULL DEFAULT 0"},
		{"writer", "TEXT NOT NULL DEFAULT ''"},
		{"updated_at", "DATETIME"},
	}
	for _, column := range columns {
		_, err := tx.Exec(fmt.Sprintf(`ALTER TABLE kv ADD COLUMN %s %s`, column.name, column.definition))
		if err != nil && !strings.Contains(err.Error(), "duplicate column name") {
			return fmt.Errorf("adding %s column: %w", column.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing revision migration: %w", err)
	}

	slog.Info("revision migration completed")
	return nil
}
