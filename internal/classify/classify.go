// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify maps a resource's declared media type to a closed
// classification that drives document synthesis: raster images and paginated
// documents can be merged into a synthesized PDF, everything else is opaque
// and passes through unmodified.
package classify

import (
	"mime"
	"path/filepath"
	"strings"
)

// Kind classifies a resource's media type.
type Kind int

const (
	// Opaque covers every absent, unrecognized, or unmergeable media type.
	Opaque Kind = iota
	// RasterImage is a decodable bitmap image format.
	RasterImage
	// PaginatedDocument is an existing multi-page PDF.
	PaginatedDocument
)

func (k Kind) String() string {
	switch k {
	case RasterImage:
		return "raster-image"
	case PaginatedDocument:
		return "paginated-document"
	default:
		return "opaque"
	}
}

// Mergeable reports whether a resource of this kind can contribute pages to
// a synthesized document.
func (k Kind) Mergeable() bool {
	return k == RasterImage || k == PaginatedDocument
}

// rasterTypes is the fixed set of image media types the synthesizer can
// decode and place on a page.
var rasterTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/webp": true,
}

const pdfType = "application/pdf"

// Classify determines the kind for a declared media type. It is a pure,
// total function: an empty or unparsable media type classifies as Opaque.
func Classify(mediaType string) Kind {
	mt := normalize(mediaType)
	switch {
	case mt == "":
		return Opaque
	case mt == pdfType:
		return PaginatedDocument
	case rasterTypes[mt]:
		return RasterImage
	default:
		return Opaque
	}
}

// normalize lowercases the media type and strips any parameters
// ("image/png; name=a.png" -> "image/png").
func normalize(mediaType string) string {
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
		return mt
	}
	return strings.ToLower(mediaType)
}

// preferredExtensions overrides mime.ExtensionsByType where that list is
// ambiguous or platform-dependent.
var preferredExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/tiff":      ".tiff",
	"image/bmp":       ".bmp",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
	"video/mp4":       ".mp4",
	"audio/mpeg":      ".mp3",
	"text/html":       ".html",
}

// Extension returns the output file extension (with leading dot) for a
// resource, derived from its media type, falling back to the extension of
// the original filename, or "" when neither yields one.
func Extension(mediaType, fileName string) string {
	mt := normalize(mediaType)
	if ext, ok := preferredExtensions[mt]; ok {
		return ext
	}
	if mt != "" {
		if exts, err := mime.ExtensionsByType(mt); err == nil && len(exts) > 0 {
			return exts[0]
		}
	}
	if ext := filepath.Ext(fileName); ext != "" {
		return strings.ToLower(ext)
	}
	return ""
}
