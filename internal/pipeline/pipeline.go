// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives one collection end-to-end: parse, classify, route,
// resolve names, write artifacts, record outcomes.
//
// Failure scoping follows a strict taxonomy: an unparsable archive fails its
// whole collection (and nothing else); a synthesis or write failure fails
// only its note; name collisions and missing metadata degrade to warnings.
// Every path through the pipeline ends in a recorded outcome.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/enex-migrate/internal/classify"
	"github.com/pdiddy/enex-migrate/internal/enex"
	"github.com/pdiddy/enex-migrate/internal/record"
	"github.com/pdiddy/enex-migrate/internal/resolve"
	"github.com/pdiddy/enex-migrate/internal/synth"
	"github.com/pdiddy/enex-migrate/pkg/types"
)

// Options configures a pipeline run.
type Options struct {
	// OutputDir is the root under which one directory per notebook is
	// created.
	OutputDir string

	// PreserveNames suppresses identifier prefixes on artifact names.
	PreserveNames bool
}

// Pipeline processes collections sequentially. One recorder accumulates the
// whole run; one resolver per output directory guards its namespace.
type Pipeline struct {
	rec  *record.Recorder
	opts Options
	out  io.Writer

	// newID is swappable so tests get deterministic names.
	newID func() string
}

// New returns a Pipeline writing progress lines to w.
func New(rec *record.Recorder, opts Options, w io.Writer) *Pipeline {
	if w == nil {
		w = io.Discard
	}
	return &Pipeline{
		rec:   rec,
		opts:  opts,
		out:   w,
		newID: resolve.NewID,
	}
}

// BatchResult summarizes a multi-file run.
type BatchResult struct {
	Collections int
	Failed      int
	Notes       int
}

// HasFailures reports whether any collection failed to parse.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Run processes each archive file in order and returns a summary. A failed
// collection is recorded and counted; it never stops the batch.
func (p *Pipeline) Run(paths []string) BatchResult {
	var result BatchResult
	for _, path := range paths {
		notes, err := p.ProcessFile(path)
		result.Collections++
		result.Notes += notes
		if err != nil {
			result.Failed++
		}
	}
	fmt.Fprintf(p.out, "\nBatch summary: %d collection(s), %d note(s), %d failed collection(s)\n",
		result.Collections, result.Notes, result.Failed)
	return result
}

// ProcessFile parses one archive file and processes its collection. The
// returned error is non-nil only for a collection-level parse failure, which
// is already recorded by the time ProcessFile returns.
func (p *Pipeline) ProcessFile(path string) (int, error) {
	source := filepath.Base(path)
	name := strings.TrimSuffix(source, filepath.Ext(source))
	p.rec.StartCollection(name)

	col, warnings, err := enex.Parse(path)
	if err != nil {
		p.rec.Append(name, types.LogEntry{
			File:    source,
			Success: false,
			Kind:    types.KindError,
			Error:   err.Error(),
		})
		fmt.Fprintf(p.out, "failed:  %s (%v)\n", source, err)
		return 0, err
	}
	for _, w := range warnings {
		p.rec.Warn(w)
	}
	return p.ProcessCollection(col)
}

// ProcessCollection routes every note of an already-parsed collection. The
// collection's log entries must have been started by the caller (ProcessFile
// does this; tests may call StartCollection directly).
func (p *Pipeline) ProcessCollection(col *types.Collection) (int, error) {
	dir := filepath.Join(p.opts.OutputDir, col.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		p.rec.Append(col.Name, types.LogEntry{
			File:    col.Source,
			Success: false,
			Kind:    types.KindError,
			Error:   fmt.Sprintf("creating notebook directory: %v", err),
		})
		return 0, err
	}

	res := resolve.NewResolver(dir)
	for _, note := range col.Notes {
		p.processNote(res, col, note)
	}

	if err := p.rec.WriteManifest(dir, col.Name); err != nil {
		fmt.Fprintf(p.out, "warning: manifest write failed for %s: %v\n", col.Name, err)
	}
	return len(col.Notes), nil
}

// processNote applies the routing decision table to one note. Any failure
// inside is recorded against this note only.
func (p *Pipeline) processNote(res *resolve.Resolver, col *types.Collection, note types.Note) {
	title := resolve.SanitizeTitle(note.Title)
	if title == "" {
		title = "Untitled"
		p.rec.Warn(types.Warning{
			Type:     types.WarnMissingTitle,
			Resolved: title,
			Message:  fmt.Sprintf("note in %s has no title; using %q", col.Source, title),
		})
	}

	var id string
	if !p.opts.PreserveNames {
		id = p.newID()
	}

	hasText := note.HasText()
	switch n := len(note.Resources); {
	case !hasText && n == 0:
		p.rec.Append(col.Name, types.LogEntry{
			File:    col.Source,
			Note:    title,
			NoteID:  id,
			Success: true,
			Kind:    types.KindEmpty,
		})
		fmt.Fprintf(p.out, "skipped: %s (empty)\n", title)
	case !hasText && n == 1:
		p.writePassthrough(res, col, title, id, note.Resources[0])
	case hasText && n == 0:
		p.writeTextDocument(res, col, title, id, note.Text)
	default:
		p.writeMergedDocument(res, col, title, id, note)
	}
}

// prefix joins an identifier and title into the artifact name stem.
func prefix(id, title string) string {
	if id == "" {
		return title
	}
	return id + "-" + title
}

// writePassthrough emits a lone resource with its original bytes and an
// extension derived from its media type.
func (p *Pipeline) writePassthrough(res *resolve.Resolver, col *types.Collection, title, id string, r types.Resource) {
	name := prefix(id, title) + classify.Extension(r.Mime, r.FileName)
	path := p.reserve(res, name)
	if err := os.WriteFile(path, r.Data, 0o644); err != nil {
		p.failNote(col, title, id, fmt.Errorf("writing %s: %w", filepath.Base(path), err))
		return
	}
	p.rec.Append(col.Name, types.LogEntry{
		File:    col.Source,
		Note:    title,
		NoteID:  id,
		Success: true,
		Paths:   []string{path},
		Kind:    types.KindSinglePassthrough,
	})
	fmt.Fprintf(p.out, "created: %s (single-passthrough)\n", filepath.Base(path))
}

// writeTextDocument synthesizes a PDF from text alone.
func (p *Pipeline) writeTextDocument(res *resolve.Resolver, col *types.Collection, title, id, text string) {
	doc, err := synth.Document(text, nil)
	if err != nil {
		p.failNote(col, title, id, fmt.Errorf("text synthesis: %w", err))
		return
	}
	path := p.reserve(res, prefix(id, title)+".pdf")
	if err := os.WriteFile(path, doc.PDF, 0o644); err != nil {
		p.failNote(col, title, id, fmt.Errorf("writing %s: %w", filepath.Base(path), err))
		return
	}
	p.rec.Append(col.Name, types.LogEntry{
		File:    col.Source,
		Note:    title,
		NoteID:  id,
		Success: true,
		Paths:   []string{path},
		Kind:    types.KindTextDocument,
	})
	fmt.Fprintf(p.out, "created: %s (text-document)\n", filepath.Base(path))
}

// writeMergedDocument handles notes with text plus resources, or multiple
// resources: mergeable resources fold into one synthesized PDF, opaque ones
// are written unmodified as sidecars. A zero-page synthesis falls back to an
// empty (or sidecar-only) outcome rather than an error; sidecars are written
// regardless so no data is lost.
func (p *Pipeline) writeMergedDocument(res *resolve.Resolver, col *types.Collection, title, id string, note types.Note) {
	var items []synth.Item
	var opaque []types.Resource
	for i, r := range note.Resources {
		kind := classify.Classify(r.Mime)
		if !kind.Mergeable() {
			opaque = append(opaque, r)
			continue
		}
		name := r.FileName
		if name == "" {
			name = fmt.Sprintf("resource_%d%s", i, classify.Extension(r.Mime, ""))
		}
		items = append(items, synth.Item{Kind: kind, Data: r.Data, Name: name})
	}

	text := ""
	if note.HasText() {
		text = note.Text
	}

	var paths []string
	doc, synthErr := synth.Document(text, items)
	for _, s := range doc.Skipped {
		p.rec.Warn(types.Warning{
			Type:     types.WarnDecodeError,
			Original: s.Name,
			Message:  fmt.Sprintf("note %q: %s could not be merged: %v", title, s.Name, s.Err),
		})
	}

	kind := types.KindMergedDocument
	switch {
	case synthErr == nil:
		path := p.reserve(res, prefix(id, title)+"-MultiItem.pdf")
		if err := os.WriteFile(path, doc.PDF, 0o644); err != nil {
			p.failNote(col, title, id, fmt.Errorf("writing %s: %w", filepath.Base(path), err))
			p.writeSidecars(res, col, title, id, opaque, &paths)
			return
		}
		paths = append(paths, path)
		fmt.Fprintf(p.out, "created: %s (merged-document, %d pages)\n", filepath.Base(path), doc.Pages)
	case errors.Is(synthErr, synth.ErrNoPages):
		// Nothing mergeable survived. The note degrades to its sidecars,
		// or to an empty outcome when there are none.
		if len(doc.Skipped) > 0 {
			p.rec.Warn(types.Warning{
				Type:     types.WarnZeroPageDocument,
				Original: title,
				Message:  fmt.Sprintf("note %q: no pages could be synthesized (%d input(s) failed)", title, len(doc.Skipped)),
			})
		}
		if len(opaque) == 0 {
			p.rec.Append(col.Name, types.LogEntry{
				File:    col.Source,
				Note:    title,
				NoteID:  id,
				Success: true,
				Kind:    types.KindEmpty,
			})
			fmt.Fprintf(p.out, "skipped: %s (empty)\n", title)
			return
		}
		kind = types.KindOpaqueSidecar
	default:
		p.failNote(col, title, id, fmt.Errorf("merged synthesis: %w", synthErr))
		p.writeSidecars(res, col, title, id, opaque, &paths)
		return
	}

	p.writeSidecars(res, col, title, id, opaque, &paths)
	p.rec.Append(col.Name, types.LogEntry{
		File:    col.Source,
		Note:    title,
		NoteID:  id,
		Success: true,
		Paths:   paths,
		Kind:    kind,
	})
}

// writeSidecars emits each opaque resource unmodified alongside the note's
// document, recording an unsupported-separate-file warning per sidecar.
// Sidecar write failures warn rather than fail the note: the primary
// document (when any) has already been preserved.
func (p *Pipeline) writeSidecars(res *resolve.Resolver, col *types.Collection, title, id string, opaque []types.Resource, paths *[]string) {
	for i, r := range opaque {
		base := r.FileName
		if base == "" {
			base = fmt.Sprintf("resource_%d%s", i, classify.Extension(r.Mime, ""))
		}
		name := prefix(id, title) + "-" + base
		path := p.reserve(res, name)
		if err := os.WriteFile(path, r.Data, 0o644); err != nil {
			p.rec.Warnf(types.WarnSeparateFile, "note %q: writing sidecar %s failed: %v", title, name, err)
			continue
		}
		*paths = append(*paths, path)
		p.rec.Warn(types.Warning{
			Type:     types.WarnSeparateFile,
			Original: base,
			Resolved: filepath.Base(path),
			Message:  fmt.Sprintf("note %q: media type not supported in PDF merge; saved separately as %s", title, filepath.Base(path)),
		})
		fmt.Fprintf(p.out, "created: %s (opaque-sidecar)\n", filepath.Base(path))
	}
}

// reserve resolves a proposed name and records any collision warning.
func (p *Pipeline) reserve(res *resolve.Resolver, proposed string) string {
	path, w := res.Resolve(proposed)
	if w != nil {
		p.rec.Warn(*w)
		fmt.Fprintf(p.out, "warning: %s\n", w.Message)
	}
	return path
}

// failNote records an error outcome for one note and keeps the run going.
func (p *Pipeline) failNote(col *types.Collection, title, id string, err error) {
	p.rec.Append(col.Name, types.LogEntry{
		File:    col.Source,
		Note:    title,
		NoteID:  id,
		Success: false,
		Kind:    types.KindError,
		Error:   err.Error(),
	})
	fmt.Fprintf(p.out, "failed:  %s (%v)\n", title, err)
}
