// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"bytes"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Page layout constants, in points. Letter pages with half-inch margins,
// 11pt text on 14pt leading.
const (
	pageMargin  = 36
	fontSize    = 11
	lineHeight  = 14
	paraSpacing = 6
	blankSpace  = 14
)

// newPage returns a letter-sized portrait document with the standard
// margins and auto page breaks enabled.
func newPage() *fpdf.Fpdf {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	return pdf
}

// renderText renders word-wrapped text onto one or more pages and returns
// the PDF bytes and the page count. Paragraphs are split on newlines; blank
// lines become vertical space, matching the source notes' line structure.
func renderText(text string) ([]byte, int, error) {
	pdf := newPage()
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", fontSize)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			pdf.Ln(blankSpace)
			continue
		}
		pdf.MultiCell(0, lineHeight, tr(line), "", "L", false)
		pdf.Ln(paraSpacing)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), pdf.PageCount(), nil
}
