// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enex parses Evernote ENEX export files into collections of notes.
//
// An ENEX file is XML: an <en-export> root holding <note> elements. Each
// note carries a <title>, an optional <content> element whose text is itself
// an XML (ENML) document, and zero or more <resource> elements with
// base64-encoded payloads. Parsing is tolerant of everything except a
// structurally invalid outer document: missing titles, missing media types,
// and undecodable payloads degrade to warnings, never to a failed file.
package enex

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/enex-migrate/pkg/types"
)

// xmlExport mirrors the ENEX document structure.
type xmlExport struct {
	XMLName xml.Name  `xml:"en-export"`
	Notes   []xmlNote `xml:"note"`
}

type xmlNote struct {
	Title     string        `xml:"title"`
	Content   string        `xml:"content"`
	Resources []xmlResource `xml:"resource"`
}

type xmlResource struct {
	Data xmlData `xml:"data"`
	Mime string  `xml:"mime"`
	Attr xmlAttr `xml:"resource-attributes"`
}

type xmlData struct {
	Encoding string `xml:"encoding,attr"`
	Value    string `xml:",chardata"`
}

type xmlAttr struct {
	FileName string `xml:"file-name"`
}

// Parse reads one ENEX file and returns its collection of notes, in archive
// order, together with any non-fatal warnings raised along the way. The only
// fatal condition is an unparsable outer XML document.
func Parse(path string) (*types.Collection, []types.Warning, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	col, warnings, err := parse(f, filepath.Base(path))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return col, warnings, nil
}

// parse decodes an ENEX document from r. source is the file's base name.
func parse(r io.Reader, source string) (*types.Collection, []types.Warning, error) {
	var doc xmlExport
	dec := xml.NewDecoder(r)
	// Exports in the wild occasionally declare legacy encodings; pass
	// non-UTF-8 byte streams through unchanged rather than rejecting them.
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	if err := dec.Decode(&doc); err != nil {
		return nil, nil, err
	}

	name := strings.TrimSuffix(source, filepath.Ext(source))
	col := &types.Collection{
		Source: source,
		Name:   name,
	}

	var warnings []types.Warning
	for _, xn := range doc.Notes {
		note := types.Note{
			Title: strings.TrimSpace(xn.Title),
			Text:  extractText(xn.Content),
		}
		for i, xr := range xn.Resources {
			res, ws := decodeResource(xr, note.Title, i)
			warnings = append(warnings, ws...)
			if res != nil {
				note.Resources = append(note.Resources, *res)
			}
		}
		col.Notes = append(col.Notes, note)
	}
	return col, warnings, nil
}

// decodeResource converts one XML resource element. A malformed base64
// payload drops the resource with a decode-error warning; a missing media
// type keeps the resource (it will classify as opaque) with a warning.
func decodeResource(xr xmlResource, noteTitle string, idx int) (*types.Resource, []types.Warning) {
	payload := strings.TrimSpace(xr.Data.Value)
	if payload == "" {
		return nil, []types.Warning{{
			Type:     types.WarnDecodeError,
			Original: noteTitle,
			Message:  fmt.Sprintf("resource %d of note %q has no data", idx, noteTitle),
		}}
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, []types.Warning{{
			Type:     types.WarnDecodeError,
			Original: noteTitle,
			Message:  fmt.Sprintf("resource %d of note %q: base64 decode failed: %v", idx, noteTitle, err),
		}}
	}

	res := &types.Resource{
		Data:     data,
		Mime:     strings.TrimSpace(xr.Mime),
		FileName: strings.TrimSpace(xr.Attr.FileName),
	}

	var warnings []types.Warning
	if res.Mime == "" {
		warnings = append(warnings, types.Warning{
			Type:     types.WarnMissingMime,
			Original: noteTitle,
			Message:  fmt.Sprintf("resource %d of note %q has no declared media type; treating as opaque", idx, noteTitle),
		})
	}
	return res, warnings
}

// decodeBase64 decodes an ENEX payload. Exports wrap base64 across lines,
// so whitespace is stripped first.
func decodeBase64(s string) ([]byte, error) {
	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
	return base64.StdEncoding.DecodeString(compact)
}

// extractText pulls the plain text out of a note's ENML content: the
// concatenated character data of the inner XML document, one line per text
// node. Unparsable content yields no text; the note's resources still count.
func extractText(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	dec := xml.NewDecoder(strings.NewReader(content))
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	// ENML references an external DTD; resolve entities leniently.
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	var parts []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ""
		}
		if cd, ok := tok.(xml.CharData); ok {
			if s := strings.TrimSpace(string(cd)); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, "\n")
}
