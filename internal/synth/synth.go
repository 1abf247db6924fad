// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth builds one paginated PDF from a note's text and its
// mergeable resources. Content order is fixed: text pages first, then each
// resource in original order: raster images one per page, existing PDFs
// appended verbatim. The synthesizer is a pure transformation of its inputs;
// writing the result is the caller's concern.
package synth

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/enex-migrate/internal/classify"
)

// ErrNoPages reports that no input contributed a single page: there was no
// text and every resource failed to decode. The caller treats the note as
// empty rather than failed.
var ErrNoPages = errors.New("no pages produced")

// Item is one mergeable resource handed to the synthesizer.
type Item struct {
	// Kind is the resource's classification. Only mergeable kinds
	// contribute pages.
	Kind classify.Kind

	// Data is the decoded resource payload.
	Data []byte

	// Name identifies the item in skip reports (original filename or a
	// positional fallback).
	Name string
}

// Skipped records an input that could not be merged.
type Skipped struct {
	Name string
	Err  error
}

// Result is a synthesized document plus its accounting.
type Result struct {
	// PDF is the merged document bytes.
	PDF []byte

	// Pages is the total page count, summed from the parts that merged.
	Pages int

	// Skipped lists inputs that failed to decode and were left out.
	Skipped []Skipped
}

// part is one intermediate PDF awaiting the final merge.
type part struct {
	data  []byte
	pages int
}

// pdfConf returns the pdfcpu configuration used for counting and merging.
// Relaxed validation keeps slightly malformed attachments mergeable.
func pdfConf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Document synthesizes one PDF from text and items. A decode failure on one
// item skips that item and continues; only a zero-page outcome is an error
// (ErrNoPages). Any other error means the merge itself failed. The returned
// Result is never nil, so skip accounting survives an error return.
func Document(text string, items []Item) (*Result, error) {
	result := &Result{}
	var parts []part

	if text != "" {
		data, pages, err := renderText(text)
		if err != nil {
			return result, fmt.Errorf("rendering text: %w", err)
		}
		parts = append(parts, part{data: data, pages: pages})
	}

	for i, item := range items {
		name := item.Name
		if name == "" {
			name = fmt.Sprintf("resource_%d", i)
		}
		switch item.Kind {
		case classify.RasterImage:
			data, err := renderImage(item.Data)
			if err != nil {
				result.Skipped = append(result.Skipped, Skipped{Name: name, Err: err})
				continue
			}
			parts = append(parts, part{data: data, pages: 1})
		case classify.PaginatedDocument:
			pages, err := api.PageCount(bytes.NewReader(item.Data), pdfConf())
			if err != nil {
				result.Skipped = append(result.Skipped, Skipped{Name: name, Err: err})
				continue
			}
			parts = append(parts, part{data: item.Data, pages: pages})
		default:
			result.Skipped = append(result.Skipped, Skipped{
				Name: name,
				Err:  fmt.Errorf("media kind %s is not mergeable", item.Kind),
			})
		}
	}

	if len(parts) == 0 {
		return result, ErrNoPages
	}

	merged, err := merge(parts)
	if err != nil {
		return result, fmt.Errorf("merging %d parts: %w", len(parts), err)
	}
	result.PDF = merged
	for _, p := range parts {
		result.Pages += p.pages
	}
	return result, nil
}

// merge concatenates the parts' pages in order. A single part needs no
// merge pass.
func merge(parts []part) ([]byte, error) {
	if len(parts) == 1 {
		return parts[0].data, nil
	}
	readers := make([]io.ReadSeeker, len(parts))
	for i, p := range parts {
		readers[i] = bytes.NewReader(p.data)
	}
	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, pdfConf()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PageCount reports the page count of a standalone PDF. Exposed for callers
// and tests that need to verify merge accounting.
func PageCount(pdf []byte) (int, error) {
	return api.PageCount(bytes.NewReader(pdf), pdfConf())
}
