// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index maintains a queryable SQLite audit index over extraction
// logs. The log file stays the source of truth; the index exists so large
// migrations can be audited with filters and full-text search instead of
// grepping JSON.
package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/enex-migrate/pkg/types"
)

// Store manages the audit index SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the audit index database at cfg.DBFile,
// creating the schema if it does not exist.
func NewStore(cfg types.IndexConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.DBFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBFile+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			notebook TEXT NOT NULL,
			file TEXT,
			note TEXT,
			note_id TEXT,
			kind TEXT NOT NULL,
			success INTEGER NOT NULL,
			error TEXT,
			paths TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_notebook ON notes(notebook)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_kind ON notes(kind)`,
		`CREATE TABLE IF NOT EXISTS warnings (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			original TEXT,
			resolved TEXT,
			message TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ingest_status (
			log_file TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='notes_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE notes_fts USING fts5(note, error, content=notes, content_rowid=rowid)`,
			`CREATE TRIGGER notes_ai AFTER INSERT ON notes BEGIN
				INSERT INTO notes_fts(rowid, note, error) VALUES (new.rowid, new.note, new.error);
			END`,
			`CREATE TRIGGER notes_ad AFTER DELETE ON notes BEGIN
				INSERT INTO notes_fts(notes_fts, rowid, note, error) VALUES('delete', old.rowid, old.note, old.error);
			END`,
			`CREATE TRIGGER notes_au AFTER UPDATE ON notes BEGIN
				INSERT INTO notes_fts(notes_fts, rowid, note, error) VALUES('delete', old.rowid, old.note, old.error);
				INSERT INTO notes_fts(rowid, note, error) VALUES (new.rowid, new.note, new.error);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from one index ingestion run.
type IngestSummary struct {
	Notebooks int
	Notes     int
	Warnings  int
	Skipped   bool
}

// Ingest reads an extraction log file and populates the database,
// replacing any rows from a previous ingestion of the same file. An
// unchanged log (by modification time) is skipped.
func (s *Store) Ingest(ctx context.Context, w io.Writer, logPath string) (IngestSummary, error) {
	info, err := os.Stat(logPath)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading log file: %w", err)
	}
	modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

	var storedModTime string
	err = s.db.QueryRowContext(ctx,
		`SELECT file_mod_time FROM ingest_status WHERE log_file = ?`, logPath,
	).Scan(&storedModTime)
	if err == nil && storedModTime == modTime {
		fmt.Fprintf(w, "skipped %s (unchanged)\n", filepath.Base(logPath))
		return IngestSummary{Skipped: true}, nil
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading log file: %w", err)
	}
	var log types.ExtractionLog
	if err := json.Unmarshal(data, &log); err != nil {
		return IngestSummary{}, fmt.Errorf("parsing log file: %w", err)
	}

	summary, err := s.ingestLog(ctx, &log, logPath, modTime)
	if err != nil {
		return summary, err
	}

	fmt.Fprintf(w, "indexed %s: %d notebook(s), %d note(s), %d warning(s)\n",
		filepath.Base(logPath), summary.Notebooks, summary.Notes, summary.Warnings)
	return summary, nil
}

func (s *Store) ingestLog(ctx context.Context, log *types.ExtractionLog, logPath, modTime string) (IngestSummary, error) {
	var summary IngestSummary

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Re-ingestion replaces the previous picture wholesale. The log file
	// is itself cumulative, so partial deletes would double-count.
	if _, err := tx.ExecContext(ctx, `DELETE FROM notes`); err != nil {
		return summary, fmt.Errorf("clearing notes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM warnings`); err != nil {
		return summary, fmt.Errorf("clearing warnings: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO notes (notebook, file, note, note_id, kind, success, error, paths)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return summary, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for notebook, entries := range log.Notebooks {
		summary.Notebooks++
		for _, e := range entries {
			pathsJSON, _ := json.Marshal(e.Paths)
			success := 0
			if e.Success {
				success = 1
			}
			if _, err := stmt.ExecContext(ctx,
				notebook, e.File, e.Note, e.NoteID, string(e.Kind),
				success, e.Error, string(pathsJSON),
			); err != nil {
				return summary, fmt.Errorf("inserting note %q: %w", e.Note, err)
			}
			summary.Notes++
		}
	}

	for _, warn := range log.Warnings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO warnings (type, original, resolved, message) VALUES (?, ?, ?, ?)`,
			warn.Type, warn.Original, warn.Resolved, warn.Message,
		); err != nil {
			return summary, fmt.Errorf("inserting warning: %w", err)
		}
		summary.Warnings++
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ingest_status (log_file, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(log_file) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		logPath, modTime,
	); err != nil {
		return summary, fmt.Errorf("updating ingest status: %w", err)
	}

	return summary, tx.Commit()
}
