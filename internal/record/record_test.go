// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package record

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/enex-migrate/pkg/types"
)

func TestFlush_WireShape(t *testing.T) {
	r := New()
	r.StartCollection("Work")
	r.Append("Work", types.LogEntry{
		File:    "Work.enex",
		Note:    "Meeting",
		NoteID:  "A3B9K2",
		Success: true,
		Paths:   []string{"out/Work/A3B9K2-Meeting.pdf"},
		Kind:    types.KindTextDocument,
	})
	r.Warn(types.Warning{
		Type:     types.WarnFilenameCollision,
		Original: "Plan.pdf",
		Resolved: "Plan_1.pdf",
		Message:  "collision",
	})

	path := filepath.Join(t.TempDir(), "extraction_log.json")
	require.NoError(t, r.Flush(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// The wire shape is flat: notebook names and "warnings" are top-level keys.
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "Work")
	assert.Contains(t, raw, "warnings")

	var entries []types.LogEntry
	require.NoError(t, json.Unmarshal(raw["Work"], &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Meeting", entries[0].Note)
	assert.Equal(t, types.KindTextDocument, entries[0].Kind)
	assert.True(t, entries[0].Success)
}

func TestFlush_OrderPreservedWithinCollection(t *testing.T) {
	r := New()
	r.StartCollection("NB")
	for _, title := range []string{"first", "second", "third"} {
		r.Append("NB", types.LogEntry{File: "NB.enex", Note: title, Success: true, Kind: types.KindEmpty})
	}

	path := filepath.Join(t.TempDir(), "log.json")
	require.NoError(t, r.Flush(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var log types.ExtractionLog
	require.NoError(t, json.Unmarshal(data, &log))

	got := make([]string, 0, 3)
	for _, e := range log.Notebooks["NB"] {
		got = append(got, e.Note)
	}
	assert.Equal(t, []string{"first", "second", "third"}, got)
}

func TestLoad_MergesPriorRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.json")

	// First run: one collection.
	first := New()
	first.StartCollection("Old")
	first.Append("Old", types.LogEntry{File: "Old.enex", Note: "kept", Success: true, Kind: types.KindTextDocument})
	first.Warn(types.Warning{Type: types.WarnDecodeError, Message: "old warning"})
	require.NoError(t, first.Flush(path))

	// Second run processes a different collection; the first must survive.
	second := New()
	second.Load(path)
	second.StartCollection("New")
	second.Append("New", types.LogEntry{File: "New.enex", Note: "fresh", Success: true, Kind: types.KindTextDocument})
	require.NoError(t, second.Flush(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var log types.ExtractionLog
	require.NoError(t, json.Unmarshal(data, &log))

	assert.Len(t, log.Notebooks["Old"], 1)
	assert.Len(t, log.Notebooks["New"], 1)
	require.Len(t, log.Warnings, 1)
	assert.Equal(t, "old warning", log.Warnings[0].Message)
}

func TestLoad_ReprocessedCollectionReplaced(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.json")

	first := New()
	first.StartCollection("NB")
	first.Append("NB", types.LogEntry{File: "NB.enex", Note: "stale", Success: true, Kind: types.KindTextDocument})
	require.NoError(t, first.Flush(path))

	second := New()
	second.StartCollection("NB")
	second.Append("NB", types.LogEntry{File: "NB.enex", Note: "current", Success: true, Kind: types.KindTextDocument})
	second.Load(path)
	require.NoError(t, second.Flush(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var log types.ExtractionLog
	require.NoError(t, json.Unmarshal(data, &log))

	require.Len(t, log.Notebooks["NB"], 1)
	assert.Equal(t, "current", log.Notebooks["NB"][0].Note)
}

func TestLoad_MissingOrCorruptFileIgnored(t *testing.T) {
	r := New()
	r.Load(filepath.Join(t.TempDir(), "does-not-exist.json"))

	corrupt := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{not json"), 0o644))
	r.Load(corrupt)

	r.StartCollection("NB")
	assert.Empty(t, r.Entries("NB"))
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	r := New()
	r.StartCollection("NB")
	r.Append("NB", types.LogEntry{
		File: "NB.enex", Note: "Doc", NoteID: "ABC123", Success: true,
		Paths: []string{filepath.Join(dir, "ABC123-Doc.pdf")},
		Kind:  types.KindTextDocument,
	})
	r.Append("NB", types.LogEntry{File: "NB.enex", Note: "Nothing", Success: true, Kind: types.KindEmpty})
	r.Append("NB", types.LogEntry{File: "NB.enex", Note: "Broken", Success: false, Kind: types.KindError, Error: "boom"})

	require.NoError(t, r.WriteManifest(dir, "NB"))

	data, err := os.ReadFile(filepath.Join(dir, ".manifest.yaml"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "ABC123-Doc.pdf")
	// Empty and error outcomes have no artifacts to list.
	assert.NotContains(t, content, "Nothing")
	assert.NotContains(t, content, "Broken")
}
