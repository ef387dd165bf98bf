// Package ledger records every harvested day in a SQLite database so that
// past runs can be listed with the history command.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hbsjo/oc-harvester/internal/types"
)

const dayLayout = "2006-01-02"

// DayEntry is one stored day report.
type DayEntry struct {
	ID            int64
	RunID         string
	Day           time.Time
	Listed        int
	Special       int
	Skipped       int
	Processed     int
	Rows          int
	ErrorCount    int
	ListingFailed bool
	DetailFile    string
	ErrorFile     string
	XLSXFile      string
	WriteError    string
	RecordedAt    time.Time
	Errors        []types.ErrorRecord
}

// Repo stores day reports.
type Repo struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepo wraps an initialized database.
func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db, now: time.Now}
}

// Open initializes the database at path and returns a Repo over it.
func Open(path string) (*Repo, error) {
	db, err := InitDB(path)
	if err != nil {
		return nil, err
	}
	return NewRepo(db), nil
}

// Close closes the underlying database.
func (r *Repo) Close() error { return r.db.Close() }

// RecordDay stores a day report and its error records in one transaction.
// Recording the same (runID, day) twice replaces the earlier entry.
func (r *Repo) RecordDay(ctx context.Context, runID string, report types.DayReport) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	day := report.Date.Format(dayLayout)
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM harvest_days WHERE run_id = ? AND day = ?`, runID, day); err != nil {
		return fmt.Errorf("delete previous entry: %w", err)
	}

	var writeErr any
	if report.WriteErr != nil {
		writeErr = report.WriteErr.Error()
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO harvest_days
		(run_id, day, listed, special, skipped, processed, rows_written,
		 error_count, listing_failed, detail_file, error_file, xlsx_file,
		 write_error, recorded_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		runID, day, report.Listed, report.Special, report.Skipped,
		report.Processed, report.Rows, len(report.Errors),
		boolToInt(report.ListingFailed), nullable(report.DetailFile),
		nullable(report.ErrorFile), nullable(report.XLSXFile), writeErr,
		r.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert day: %w", err)
	}
	dayID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	if len(report.Errors) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO harvest_errors (day_id, order_code, reason) VALUES (?,?,?)`)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		for i, e := range report.Errors {
			if _, err := stmt.ExecContext(ctx, dayID, e.Code, e.Reason); err != nil {
				return fmt.Errorf("insert error %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListDays returns the most recently recorded days, newest first, with
// their error records. A non-positive limit returns every entry.
func (r *Repo) ListDays(ctx context.Context, limit int) ([]DayEntry, error) {
	query := `SELECT id, run_id, day, listed, special, skipped, processed,
		rows_written, error_count, listing_failed, detail_file, error_file,
		xlsx_file, write_error, recorded_at
		FROM harvest_days ORDER BY recorded_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query days: %w", err)
	}
	defer rows.Close()

	var entries []DayEntry
	for rows.Next() {
		var (
			e              DayEntry
			day, recorded  string
			listingFailed  int
			detail, errCSV sql.NullString
			xlsx, writeErr sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.RunID, &day, &e.Listed, &e.Special,
			&e.Skipped, &e.Processed, &e.Rows, &e.ErrorCount, &listingFailed,
			&detail, &errCSV, &xlsx, &writeErr, &recorded); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		e.Day, _ = time.Parse(dayLayout, day)
		e.RecordedAt, _ = time.Parse(time.RFC3339, recorded)
		e.ListingFailed = listingFailed != 0
		e.DetailFile = detail.String
		e.ErrorFile = errCSV.String
		e.XLSXFile = xlsx.String
		e.WriteError = writeErr.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate days: %w", err)
	}
	rows.Close()

	for i := range entries {
		errs, err := r.dayErrors(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Errors = errs
	}
	return entries, nil
}

func (r *Repo) dayErrors(ctx context.Context, dayID int64) ([]types.ErrorRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT order_code, reason FROM harvest_errors WHERE day_id = ? ORDER BY rowid`, dayID)
	if err != nil {
		return nil, fmt.Errorf("query errors: %w", err)
	}
	defer rows.Close()

	var errs []types.ErrorRecord
	for rows.Next() {
		var e types.ErrorRecord
		if err := rows.Scan(&e.Code, &e.Reason); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		errs = append(errs, e)
	}
	return errs, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
