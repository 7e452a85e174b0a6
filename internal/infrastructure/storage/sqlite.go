// Package storage persists imported transactions and batch feature runs in
// SQLite behind the Repository interface.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access. It implements Repository.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance, running pending migrations.
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveTransactions upserts a batch of transactions by ID.
func (s *Storage) SaveTransactions(records []TransactionRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO transactions (id, user_id, vendor_name, amount, date, imported_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		importedAt := r.ImportedAt
		if importedAt.IsZero() {
			importedAt = time.Now().UTC()
		}
		if _, err := stmt.Exec(r.ID, r.UserID, r.VendorName, r.Amount, r.Date, importedAt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to save transaction %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// ListTransactions returns transactions matching the filters.
func (s *Storage) ListTransactions(filters TransactionFilters) ([]TransactionRecord, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, user_id, vendor_name, amount, date, imported_at FROM transactions`
	args := []interface{}{}
	if filters.UserID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, filters.UserID)
	}
	query += ` ORDER BY user_id, date, id LIMIT ? OFFSET ?`
	args = append(args, limit, filters.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []TransactionRecord
	for rows.Next() {
		var r TransactionRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.VendorName, &r.Amount, &r.Date, &r.ImportedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetTransaction retrieves one transaction by ID.
func (s *Storage) GetTransaction(id string) (*TransactionRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, vendor_name, amount, date, imported_at FROM transactions WHERE id = ?`, id)

	var r TransactionRecord
	err := row.Scan(&r.ID, &r.UserID, &r.VendorName, &r.Amount, &r.Date, &r.ImportedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// StartRun records the start of a feature run and returns its ID.
func (s *Storage) StartRun(workers int) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO feature_runs (started_at, workers) VALUES (?, ?)`,
		time.Now().UTC(), workers)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// CompleteRun records the completion of a feature run.
func (s *Storage) CompleteRun(runID int64, txnCount, errorCount int, durationMs int64) error {
	_, err := s.db.Exec(`
	UPDATE feature_runs
	SET completed_at = ?, txn_count = ?, error_count = ?, duration_ms = ?
	WHERE id = ?`,
		time.Now().UTC(), txnCount, errorCount, durationMs, runID)
	return err
}

// GetRun retrieves a run by ID.
func (s *Storage) GetRun(runID int64) (*FeatureRun, error) {
	row := s.db.QueryRow(`
	SELECT id, started_at, completed_at, workers, txn_count, error_count, duration_ms
	FROM feature_runs WHERE id = ?`, runID)

	var r FeatureRun
	var completed sql.NullTime
	err := row.Scan(&r.ID, &r.StartedAt, &completed, &r.Workers, &r.TxnCount, &r.ErrorCount, &r.DurationMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if completed.Valid {
		r.CompletedAt = &completed.Time
	}
	return &r, nil
}

// ListRuns returns recent runs, newest first.
func (s *Storage) ListRuns(limit int) ([]FeatureRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
	SELECT id, started_at, completed_at, workers, txn_count, error_count, duration_ms
	FROM feature_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []FeatureRun
	for rows.Next() {
		var r FeatureRun
		var completed sql.NullTime
		if err := rows.Scan(&r.ID, &r.StartedAt, &completed, &r.Workers, &r.TxnCount, &r.ErrorCount, &r.DurationMs); err != nil {
			return nil, err
		}
		if completed.Valid {
			r.CompletedAt = &completed.Time
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveFeatures stores computed feature maps for a run.
func (s *Storage) SaveFeatures(records []FeatureRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO feature_records (run_id, txn_id, features_json) VALUES (?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		featuresJSON, err := json.Marshal(r.Features)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to encode features for %s: %w", r.TxnID, err)
		}
		if _, err := stmt.Exec(r.RunID, r.TxnID, string(featuresJSON)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to save features for %s: %w", r.TxnID, err)
		}
	}

	return tx.Commit()
}

// GetFeatures retrieves the feature map for one transaction in one run.
func (s *Storage) GetFeatures(runID int64, txnID string) (*FeatureRecord, error) {
	row := s.db.QueryRow(
		`SELECT run_id, txn_id, features_json FROM feature_records WHERE run_id = ? AND txn_id = ?`,
		runID, txnID)

	var r FeatureRecord
	var featuresJSON string
	err := row.Scan(&r.RunID, &r.TxnID, &featuresJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(featuresJSON), &r.Features); err != nil {
		return nil, fmt.Errorf("failed to decode features for %s: %w", txnID, err)
	}
	return &r, nil
}

// GetStats returns aggregate statistics.
func (s *Storage) GetStats() (*Stats, error) {
	stats := &Stats{}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&stats.TransactionCount); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow(`SELECT COUNT(DISTINCT user_id) FROM transactions`).Scan(&stats.UserCount); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM feature_runs`).Scan(&stats.RunCount); err != nil {
		return nil, err
	}

	var last time.Time
	err := s.db.QueryRow(`SELECT started_at FROM feature_runs ORDER BY started_at DESC LIMIT 1`).Scan(&last)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if err == nil {
		stats.LastRunAt = &last
	}

	return stats, nil
}
