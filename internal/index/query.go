// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/enex-migrate/pkg/types"
)

// QueryOptions holds parameters for audit index queries.
type QueryOptions struct {
	// Query is an FTS5 full-text search over note titles and error text.
	Query string

	// Notebook filters by notebook name.
	Notebook string

	// Kind filters by artifact kind.
	Kind types.ArtifactKind

	// FailedOnly restricts results to unsuccessful notes.
	FailedOnly bool

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Notebook == "" && q.Kind == "" && !q.FailedOnly
}

// NoteRecord is one indexed note outcome with its notebook.
type NoteRecord struct {
	Notebook string
	types.LogEntry
}

// Query searches the audit index with optional full-text search and
// structured filters. Full-text queries rank by relevance; structured
// queries sort by notebook and note title.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]NoteRecord, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT n.notebook, n.file, n.note, n.note_id, n.kind, n.success, n.error, n.paths
			FROM notes_fts
			JOIN notes n ON n.rowid = notes_fts.rowid
			WHERE notes_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT n.notebook, n.file, n.note, n.note_id, n.kind, n.success, n.error, n.paths
			FROM notes n
			WHERE 1=1`)
	}

	if opts.Notebook != "" {
		qb.WriteString(` AND n.notebook = ?`)
		args = append(args, opts.Notebook)
	}

	if opts.Kind != "" {
		qb.WriteString(` AND n.kind = ?`)
		args = append(args, string(opts.Kind))
	}

	if opts.FailedOnly {
		qb.WriteString(` AND n.success = 0`)
	}

	if useFTS {
		qb.WriteString(` ORDER BY notes_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY n.notebook, n.note`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit index: %w", err)
	}
	defer rows.Close()

	var results []NoteRecord
	for rows.Next() {
		var (
			rec       NoteRecord
			kind      string
			success   int
			errText   sql.NullString
			pathsJSON sql.NullString
		)
		if err := rows.Scan(
			&rec.Notebook, &rec.File, &rec.Note, &rec.NoteID,
			&kind, &success, &errText, &pathsJSON,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rec.Kind = types.ArtifactKind(kind)
		rec.Success = success != 0
		if errText.Valid {
			rec.Error = errText.String
		}
		if pathsJSON.Valid {
			json.Unmarshal([]byte(pathsJSON.String), &rec.Paths)
		}
		results = append(results, rec)
	}

	return results, rows.Err()
}

// Warnings returns indexed warnings, optionally filtered by type.
func (s *Store) Warnings(ctx context.Context, warnType string) ([]types.Warning, error) {
	query := `SELECT type, original, resolved, message FROM warnings`
	var args []any
	if warnType != "" {
		query += ` WHERE type = ?`
		args = append(args, warnType)
	}
	query += ` ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying warnings: %w", err)
	}
	defer rows.Close()

	var warnings []types.Warning
	for rows.Next() {
		var w types.Warning
		var original, resolved, message sql.NullString
		if err := rows.Scan(&w.Type, &original, &resolved, &message); err != nil {
			return nil, fmt.Errorf("scanning warning: %w", err)
		}
		w.Original = original.String
		w.Resolved = resolved.String
		w.Message = message.String
		warnings = append(warnings, w)
	}

	return warnings, rows.Err()
}
