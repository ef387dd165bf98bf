package ledger

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) the ledger database at the given path and
// ensures all required tables exist. Pass ":memory:" for an in-memory
// database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer; keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS harvest_days (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			day TEXT NOT NULL,
			listed INTEGER NOT NULL,
			special INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			processed INTEGER NOT NULL,
			rows_written INTEGER NOT NULL,
			error_count INTEGER NOT NULL,
			listing_failed INTEGER NOT NULL,
			detail_file TEXT,
			error_file TEXT,
			xlsx_file TEXT,
			write_error TEXT,
			recorded_at TEXT NOT NULL,
			UNIQUE (run_id, day)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_harvest_days_day ON harvest_days(day)`,
		`CREATE INDEX IF NOT EXISTS idx_harvest_days_recorded ON harvest_days(recorded_at)`,

		`CREATE TABLE IF NOT EXISTS harvest_errors (
			day_id INTEGER NOT NULL,
			order_code TEXT NOT NULL,
			reason TEXT NOT NULL,
			FOREIGN KEY (day_id) REFERENCES harvest_days(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_harvest_errors_day ON harvest_errors(day_id)`,
		`CREATE INDEX IF NOT EXISTS idx_harvest_errors_order ON harvest_errors(order_code)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}
