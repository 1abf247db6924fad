// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/pdiddy/enex-migrate/internal/classify"
)

// pngFixture encodes a solid-color PNG of the given size.
func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 60, B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// pdfFixture builds a real PDF with the given number of pages.
func pdfFixture(t *testing.T, pages int) []byte {
	t.Helper()
	pdf := newPage()
	pdf.SetFont("Helvetica", "", fontSize)
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.MultiCell(0, lineHeight, "fixture page", "", "L", false)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDocument_TextOnly(t *testing.T) {
	res, err := Document("Hello\n\nThis is a note body.", nil)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if res.Pages < 1 {
		t.Errorf("pages = %d, want >= 1", res.Pages)
	}
	if !bytes.HasPrefix(res.PDF, []byte("%PDF")) {
		t.Error("output should be a PDF")
	}
	if got, err := PageCount(res.PDF); err != nil || got != res.Pages {
		t.Errorf("PageCount = %d (err %v), result claims %d", got, err, res.Pages)
	}
}

func TestDocument_LongTextSpansPages(t *testing.T) {
	text := strings.Repeat("A reasonably long paragraph of note text that wraps.\n", 200)
	res, err := Document(text, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Pages < 2 {
		t.Errorf("200 paragraphs should span multiple pages, got %d", res.Pages)
	}
}

func TestDocument_TextPlusImage(t *testing.T) {
	items := []Item{{Kind: classify.RasterImage, Data: pngFixture(t, 100, 80), Name: "photo.png"}}
	res, err := Document("Hello", items)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	// One text page plus one image page, never zero.
	if res.Pages < 2 {
		t.Errorf("pages = %d, want >= 2", res.Pages)
	}
	if got, err := PageCount(res.PDF); err != nil || got != res.Pages {
		t.Errorf("merged PageCount = %d (err %v), result claims %d", got, err, res.Pages)
	}
}

func TestDocument_OversizedImageStillOnePage(t *testing.T) {
	items := []Item{{Kind: classify.RasterImage, Data: pngFixture(t, 2000, 1500)}}
	res, err := Document("", items)
	if err != nil {
		t.Fatal(err)
	}
	if res.Pages != 1 {
		t.Errorf("pages = %d, want 1", res.Pages)
	}
}

func TestDocument_PDFContributesExactPageCount(t *testing.T) {
	attached := pdfFixture(t, 3)
	items := []Item{{Kind: classify.PaginatedDocument, Data: attached, Name: "report.pdf"}}

	res, err := Document("cover text", items)
	if err != nil {
		t.Fatal(err)
	}
	textOnly, err := Document("cover text", nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := textOnly.Pages + 3; res.Pages != want {
		t.Errorf("pages = %d, want %d (text pages + 3 verbatim)", res.Pages, want)
	}
	if got, err := PageCount(res.PDF); err != nil || got != res.Pages {
		t.Errorf("merged PageCount = %d (err %v), want %d", got, err, res.Pages)
	}
}

func TestDocument_CorruptImageSkipped(t *testing.T) {
	items := []Item{
		{Kind: classify.RasterImage, Data: []byte("definitely not an image"), Name: "broken.png"},
		{Kind: classify.RasterImage, Data: pngFixture(t, 40, 40), Name: "ok.png"},
	}
	res, err := Document("", items)
	if err != nil {
		t.Fatalf("one bad image must not fail the document: %v", err)
	}
	if res.Pages != 1 {
		t.Errorf("pages = %d, want 1 (good image only)", res.Pages)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Name != "broken.png" {
		t.Errorf("skipped = %+v, want broken.png", res.Skipped)
	}
}

func TestDocument_AllInputsFailIsErrNoPages(t *testing.T) {
	items := []Item{
		{Kind: classify.RasterImage, Data: []byte("junk"), Name: "a.png"},
		{Kind: classify.PaginatedDocument, Data: []byte("junk"), Name: "b.pdf"},
	}
	res, err := Document("", items)
	if !errors.Is(err, ErrNoPages) {
		t.Fatalf("err = %v, want ErrNoPages", err)
	}
	if len(res.Skipped) != 2 {
		t.Errorf("skipped = %+v, want both inputs", res.Skipped)
	}
}

func TestDocument_EmptyInputs(t *testing.T) {
	if _, err := Document("", nil); !errors.Is(err, ErrNoPages) {
		t.Fatalf("err = %v, want ErrNoPages", err)
	}
}

func TestFitPage(t *testing.T) {
	tests := []struct {
		name         string
		w, h         float64
		wantW, wantH float64
	}{
		{"fits untouched", 100, 200, 100, 200},
		{"wide landscape", 1080, 540, maxImageWidth, 270},
		{"tall portrait", 360, 1440, 180, maxImageHeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitPage(tt.w, tt.h)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("fitPage(%v, %v) = (%v, %v), want (%v, %v)", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
			}
			if w > maxImageWidth || h > maxImageHeight {
				t.Errorf("result (%v, %v) exceeds usable page area", w, h)
			}
			if tt.h != 0 && (w/h)-(tt.w/tt.h) > 0.001 {
				t.Errorf("aspect ratio changed: %v -> %v", tt.w/tt.h, w/h)
			}
		})
	}
}
