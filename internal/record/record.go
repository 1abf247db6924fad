// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package record accumulates per-collection outcomes and run-wide warnings,
// and serializes the aggregate extraction log exactly once per run. The
// recorder is the single writer of the log; other stages hand it entries and
// never see partial state.
package record

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/enex-migrate/pkg/types"
)

// Recorder owns the extraction log for one run. Appends are serialized, so
// a future concurrent pipeline can share one recorder.
type Recorder struct {
	mu  sync.Mutex
	log *types.ExtractionLog
}

// New returns a Recorder with an empty log.
func New() *Recorder {
	return &Recorder{log: types.NewExtractionLog()}
}

// Load merges a prior run's log file into the recorder so collections
// flushed earlier are carried forward, never partially overwritten. A
// missing or unreadable file is not an error; the run starts fresh.
func (r *Recorder) Load(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var prior types.ExtractionLog
	if err := json.Unmarshal(data, &prior); err != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, entries := range prior.Notebooks {
		if _, exists := r.log.Notebooks[name]; !exists {
			r.log.Notebooks[name] = entries
		}
	}
	r.log.Warnings = append(prior.Warnings, r.log.Warnings...)
}

// StartCollection resets the entry list for a collection. Reprocessing a
// collection in the same run replaces its prior entries wholesale rather
// than interleaving two runs' outcomes.
func (r *Recorder) StartCollection(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.Notebooks[name] = []types.LogEntry{}
}

// Append adds one note outcome to a collection's entry list.
func (r *Recorder) Append(collection string, e types.LogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.Notebooks[collection] = append(r.log.Notebooks[collection], e)
}

// Warn adds one warning to the run-wide flat list.
func (r *Recorder) Warn(w types.Warning) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.Warnings = append(r.log.Warnings, w)
}

// Warnf is shorthand for a typed warning with only a message.
func (r *Recorder) Warnf(warnType, format string, args ...any) {
	r.Warn(types.Warning{Type: warnType, Message: fmt.Sprintf(format, args...)})
}

// Entries returns a copy of one collection's entries, for summaries.
func (r *Recorder) Entries(collection string) []types.LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.log.Notebooks[collection]
	out := make([]types.LogEntry, len(entries))
	copy(out, entries)
	return out
}

// Warnings returns a copy of the accumulated warnings.
func (r *Recorder) Warnings() []types.Warning {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Warning, len(r.log.Warnings))
	copy(out, r.log.Warnings)
	return out
}

// Flush writes the aggregate log document to path, replacing any previous
// file. The write goes through a temp file and rename so a crash mid-write
// never leaves a truncated log behind.
func (r *Recorder) Flush(path string) error {
	r.mu.Lock()
	data, err := json.MarshalIndent(r.log, "", "  ")
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshaling extraction log: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".extraction-log-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp log file: %w", err)
	}
	tmpPath := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpPath)
		if writeErr != nil {
			return fmt.Errorf("writing log: %w", writeErr)
		}
		return fmt.Errorf("closing log: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming log into place: %w", err)
	}
	return nil
}

// manifestEntry is one artifact line in a notebook manifest.
type manifestEntry struct {
	Note   string             `yaml:"note"`
	NoteID string             `yaml:"note_id,omitempty"`
	Kind   types.ArtifactKind `yaml:"kind"`
	Paths  []string           `yaml:"paths,omitempty"`
}

// WriteManifest writes a .manifest.yaml summary of one notebook's artifacts
// into its output directory. The manifest is a convenience for browsing a
// notebook on disk; the extraction log remains the source of truth.
func (r *Recorder) WriteManifest(dir, collection string) error {
	entries := r.Entries(collection)
	manifest := make([]manifestEntry, 0, len(entries))
	for _, e := range entries {
		if e.Kind == types.KindError || e.Kind == types.KindEmpty {
			continue
		}
		paths := make([]string, 0, len(e.Paths))
		for _, p := range e.Paths {
			paths = append(paths, filepath.Base(p))
		}
		sort.Strings(paths)
		manifest = append(manifest, manifestEntry{
			Note:   e.Note,
			NoteID: e.NoteID,
			Kind:   e.Kind,
			Paths:  paths,
		})
	}
	if len(manifest) == 0 {
		return nil
	}
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, ".manifest.yaml"), data, 0o644)
}
