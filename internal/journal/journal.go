// Package journal keeps a per-document record of export outcomes in a
// SQLite database, so a run's results can be inspected afterwards
// without grepping logs.
package journal

import (
	"database/sql"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Final per-document statuses.
const (
	StatusDone            = "done"
	StatusFailed          = "failed"
	StatusMetadataOnly    = "metadata-only"
	StatusSkippedRegistry = "skipped-registry"
	StatusSkippedOnDisk   = "skipped-on-disk"
)

type Entry struct {
	DocID          string
	URL            string
	Status         string
	Attempts       int
	ImagesResolved int
	ImagesTotal    int
	DurationMS     int64
}

type Journal struct {
	db *sql.DB
}

// Open creates (or reopens) the journal database inside dir.
func Open(dir string) (*Journal, error) {
	db, err := sql.Open("sqlite", filepath.Join(dir, "journal.db"))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	// WAL and a busy timeout keep concurrent writers from tripping over
	// each other.
	if _, err := db.Exec(`
		PRAGMA busy_timeout = 5000;
		PRAGMA journal_mode = WAL;
	`); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS exports (
		doc_id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER,
		images_resolved INTEGER,
		images_total INTEGER,
		duration_ms INTEGER,
		created_time DATETIME
	);
	`); err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db}, nil
}

// Record inserts or replaces the outcome row for one document.
func (j *Journal) Record(e Entry) error {
	query := `INSERT OR REPLACE INTO exports
		(doc_id, url, status, attempts, images_resolved, images_total, duration_ms, created_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, datetime('now'))`
	_, err := j.db.Exec(query, e.DocID, e.URL, e.Status, e.Attempts,
		e.ImagesResolved, e.ImagesTotal, e.DurationMS)
	return err
}

// Entries returns all recorded outcomes ordered by document ID.
func (j *Journal) Entries() ([]Entry, error) {
	rows, err := j.db.Query(`SELECT doc_id, url, status, attempts,
		images_resolved, images_total, duration_ms FROM exports ORDER BY doc_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.DocID, &e.URL, &e.Status, &e.Attempts,
			&e.ImagesResolved, &e.ImagesTotal, &e.DurationMS); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (j *Journal) Close() error {
	return j.db.Close()
}
