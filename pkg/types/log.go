// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ArtifactKind tags the unit of output a note produced. The kind appears in
// artifact naming and in the extraction log, and downstream tooling keys off
// the string values, so they are part of the wire contract.
type ArtifactKind string

const (
	// KindSinglePassthrough is a lone resource emitted with its original
	// bytes and extension.
	KindSinglePassthrough ArtifactKind = "single-passthrough"

	// KindTextDocument is a synthesized PDF built from note text alone.
	KindTextDocument ArtifactKind = "text-document"

	// KindMergedDocument is a synthesized PDF combining text and
	// mergeable resources.
	KindMergedDocument ArtifactKind = "merged-document"

	// KindOpaqueSidecar is an unmergeable resource written unmodified
	// alongside a merged or text document.
	KindOpaqueSidecar ArtifactKind = "opaque-sidecar"

	// KindEmpty marks a note with neither text nor usable resources.
	// Logged, never written.
	KindEmpty ArtifactKind = "empty"

	// KindError marks a note (or whole collection) that failed.
	KindError ArtifactKind = "error"
)

// Warning type tags recorded in the extraction log.
const (
	WarnFilenameCollision = "filename-collision"
	WarnDecodeError       = "decode-error"
	WarnMissingMime       = "missing-mime-type"
	WarnMissingTitle      = "missing-title"
	WarnSeparateFile      = "unsupported-separate-file"
	WarnZeroPageDocument  = "zero-page-document"
)

// LogEntry records the outcome of one processed note (or a whole-collection
// parse failure). One entry per note, not per artifact: a note that emits a
// merged document plus sidecars lists every resulting path here.
type LogEntry struct {
	// File is the source .enex file name.
	File string `json:"file"`

	// Note is the sanitized note title. Empty for collection-level errors.
	Note string `json:"note,omitempty"`

	// NoteID is the identifier used in artifact names; empty string when
	// identifiers are suppressed.
	NoteID string `json:"note_id"`

	// Success is false for error outcomes only. Skipped (empty) notes
	// count as successful: nothing was lost.
	Success bool `json:"success"`

	// Paths lists every artifact path the note produced, primary
	// document first.
	Paths []string `json:"paths,omitempty"`

	// Kind tags the note's primary outcome.
	Kind ArtifactKind `json:"type"`

	// Error carries the failure message for error outcomes.
	Error string `json:"error,omitempty"`
}

// Warning records a non-fatal decision made during processing, with enough
// context to reconstruct it: the original name, the resolved fallback, and a
// human-readable message.
type Warning struct {
	Type     string `json:"type"`
	Original string `json:"original,omitempty"`
	Resolved string `json:"resolved,omitempty"`
	Message  string `json:"message"`
}

// ExtractionLog is the aggregate record of a run: per-collection ordered
// log entries plus one flat warnings list. Serialized once per run.
//
// The JSON form is flat: each collection name is a top-level key mapping to
// its entries, and "warnings" is a reserved top-level key. That shape is the
// contract the upload collaborator and audit tooling depend on.
type ExtractionLog struct {
	Notebooks map[string][]LogEntry
	Warnings  []Warning
}

// NewExtractionLog returns an empty log ready for appends.
func NewExtractionLog() *ExtractionLog {
	return &ExtractionLog{Notebooks: make(map[string][]LogEntry)}
}

// reservedWarningsKey is the top-level JSON key holding the warnings list.
const reservedWarningsKey = "warnings"

// MarshalJSON flattens the log into the wire shape. Notebook keys are
// emitted in sorted order so the document is deterministic.
func (l *ExtractionLog) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(l.Notebooks))
	for name := range l.Notebooks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]json.RawMessage, len(names)+1)
	for _, name := range names {
		if name == reservedWarningsKey {
			return nil, fmt.Errorf("collection name %q collides with the reserved warnings key", name)
		}
		entries, err := json.Marshal(l.Notebooks[name])
		if err != nil {
			return nil, err
		}
		out[name] = entries
	}
	if len(l.Warnings) > 0 {
		warns, err := json.Marshal(l.Warnings)
		if err != nil {
			return nil, err
		}
		out[reservedWarningsKey] = warns
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the flat wire shape back into the structured form.
// Used when merging a prior run's log.
func (l *ExtractionLog) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.Notebooks = make(map[string][]LogEntry, len(raw))
	l.Warnings = nil
	for key, msg := range raw {
		if key == reservedWarningsKey {
			if err := json.Unmarshal(msg, &l.Warnings); err != nil {
				return fmt.Errorf("parsing warnings: %w", err)
			}
			continue
		}
		var entries []LogEntry
		if err := json.Unmarshal(msg, &entries); err != nil {
			return fmt.Errorf("parsing entries for %q: %w", key, err)
		}
		l.Notebooks[key] = entries
	}
	return nil
}
