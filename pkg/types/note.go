// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the domain types shared across pipeline stages.
package types

// Collection is one parsed ENEX export file. It maps 1:1 to one output
// notebook directory. Immutable after parsing.
type Collection struct {
	// Source is the base name of the .enex file the collection came from.
	Source string

	// Name is the notebook name, derived from the file name without
	// its extension.
	Name string

	// Notes holds the notes in archive order. Order is preserved so the
	// extraction log is deterministic.
	Notes []Note
}

// Note is one entry within a Collection. A note may carry text, resources,
// both, or neither. Produced once by the parser and never mutated.
type Note struct {
	// Title is the raw note title. It may contain characters that are
	// hostile to filesystem paths; sanitization happens at naming time.
	Title string

	// Text is the plain-text body extracted from the note's ENML
	// content. Empty when the note has no text.
	Text string

	// Resources holds the note's embedded attachments in source order.
	Resources []Resource
}

// HasText reports whether the note carries non-blank text content.
func (n Note) HasText() bool {
	for _, r := range n.Text {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
	}
	return false
}

// Resource is one embedded binary attachment of a Note. Exclusively owned
// by its parent note.
type Resource struct {
	// Data is the decoded attachment payload.
	Data []byte

	// Mime is the declared media type (e.g. "image/png"). Empty when the
	// archive did not declare one; such resources classify as opaque.
	Mime string

	// FileName is the original attachment filename, when the archive
	// recorded one.
	FileName string
}
