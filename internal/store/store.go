// Package store persists the classified record set and the sync watermark
// in a local sqlite database, seeding process start without a full sync.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jobtrail/jobtrail/internal/record"
)

type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS applications (
		id TEXT PRIMARY KEY,
		company_name TEXT NOT NULL,
		job_profile TEXT NOT NULL,
		application_status TEXT NOT NULL,
		date DATETIME,
		original_subject TEXT,
		sender TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_app_status ON applications(application_status);
	CREATE INDEX IF NOT EXISTS idx_app_date ON applications(date);

	-- Single-row table holding the last successful sync watermark.
	CREATE TABLE IF NOT EXISTS sync_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		watermark DATETIME NOT NULL
	);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored record set and advances the watermark in one
// transaction. A sync pass that fails before calling Save leaves both
// untouched; there is no partial persistence.
func (s *Store) Save(set record.Set, watermark time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM applications`); err != nil {
		return fmt.Errorf("failed to clear applications: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO applications (id, company_name, job_profile, application_status, date, original_subject, sender)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range set {
		var date any
		if r.Date != nil {
			date = r.Date.UTC()
		}
		if _, err := stmt.Exec(r.ID, r.CompanyName, r.JobProfile, string(r.ApplicationStatus), date, r.OriginalSubject, r.From); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", r.ID, err)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO sync_state (id, watermark) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET watermark = excluded.watermark
	`, watermark.UTC()); err != nil {
		return fmt.Errorf("failed to store watermark: %w", err)
	}

	return tx.Commit()
}

// Load returns the stored record set and watermark. A fresh database
// yields an empty set and a zero watermark, which callers treat as
// "full sync needed".
func (s *Store) Load() (record.Set, time.Time, error) {
	rows, err := s.db.Query(`
		SELECT id, company_name, job_profile, application_status, date, original_subject, sender
		FROM applications
	`)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	set := record.Set{}
	for rows.Next() {
		var r record.ApplicationRecord
		var status string
		var date sql.NullTime
		if err := rows.Scan(&r.ID, &r.CompanyName, &r.JobProfile, &status, &date, &r.OriginalSubject, &r.From); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to scan record: %w", err)
		}
		r.ApplicationStatus = record.Status(status)
		if date.Valid {
			t := date.Time
			r.Date = &t
		}
		set[r.ID] = r
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read applications: %w", err)
	}

	var watermark time.Time
	err = s.db.QueryRow(`SELECT watermark FROM sync_state WHERE id = 1`).Scan(&watermark)
	if err != nil && err != sql.ErrNoRows {
		return nil, time.Time{}, fmt.Errorf("failed to read watermark: %w", err)
	}

	return set, watermark, nil
}

// CountByStatus returns how many stored records carry each status.
func (s *Store) CountByStatus() (map[record.Status]int, error) {
	rows, err := s.db.Query(`
		SELECT application_status, COUNT(*) FROM applications GROUP BY application_status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications: %w", err)
	}
	defer rows.Close()

	counts := make(map[record.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[record.Status(status)] = n
	}
	return counts, rows.Err()
}
