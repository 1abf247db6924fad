// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	// Raster decoders for the supported image media types.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/go-pdf/fpdf"
)

// Usable page area inside the margins, in points.
const (
	maxImageWidth  = 612 - 2*pageMargin
	maxImageHeight = 792 - 2*pageMargin
)

// renderImage decodes a raster image and produces a one-page PDF with the
// image placed at the top-left margin, scaled to fit the page while
// preserving aspect ratio. Images that already fit are placed at natural
// size (one pixel per point), never upscaled.
func renderImage(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	// Re-encode to PNG so every supported source format (including bmp,
	// tiff, webp) reaches the PDF encoder through one path. This also
	// flattens alpha handling into the encoder's.
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		return nil, fmt.Errorf("re-encoding image: %w", err)
	}

	bounds := img.Bounds()
	w, h := fitPage(float64(bounds.Dx()), float64(bounds.Dy()))

	pdf := newPage()
	pdf.AddPage()
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("page-image", opts, &encoded)
	pdf.ImageOptions("page-image", pageMargin, pageMargin, w, h, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing image page: %w", err)
	}
	return buf.Bytes(), nil
}

// fitPage scales (w, h) down to the usable page area, preserving aspect
// ratio. Dimensions that already fit are returned unchanged.
func fitPage(w, h float64) (float64, float64) {
	if w <= maxImageWidth && h <= maxImageHeight {
		return w, h
	}
	scale := maxImageWidth / w
	if s := maxImageHeight / h; s < scale {
		scale = s
	}
	return w * scale, h * scale
}
