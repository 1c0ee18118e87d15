// Package adapter converts raw uploads into the format-neutral content the
// extraction capability consumes. Each concrete adapter owns one format
// family; the Registry resolves which one applies.
package adapter

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"docparse/internal/domain"
	"docparse/internal/port"
)

// Registry dispatches to the adapter for the detected format. It implements
// port.FormatAdapter itself so callers never deal with detection.
type Registry struct {
	pdf         port.FormatAdapter
	image       port.FormatAdapter
	spreadsheet port.FormatAdapter
	xml         port.FormatAdapter
}

// NewRegistry creates a registry over the four format families.
func NewRegistry(pdf, image, spreadsheet, xml port.FormatAdapter) *Registry {
	return &Registry{pdf: pdf, image: image, spreadsheet: spreadsheet, xml: xml}
}

func (r *Registry) Adapt(ctx context.Context, raw []byte, filename string) (*port.RawContent, error) {
	if len(raw) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	switch detect(raw, filename) {
	case formatPDF:
		return r.pdf.Adapt(ctx, raw, filename)
	case formatImage:
		return r.image.Adapt(ctx, raw, filename)
	case formatSpreadsheet:
		return r.spreadsheet.Adapt(ctx, raw, filename)
	case formatXML:
		return r.xml.Adapt(ctx, raw, filename)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, filepath.Ext(filename))
	}
}

type format int

const (
	formatUnknown format = iota
	formatPDF
	formatImage
	formatSpreadsheet
	formatXML
)

var (
	magicPDF  = []byte("%PDF-")
	magicZIP  = []byte("PK\x03\x04") // xlsx container
	magicPNG  = []byte("\x89PNG\r\n\x1a\n")
	magicJPEG = []byte{0xFF, 0xD8, 0xFF}
	magicTIFF = [][]byte{[]byte("II*\x00"), []byte("MM\x00*")}
)

// detect resolves the format from magic bytes first, falling back to the file
// extension for text formats that have none.
func detect(raw []byte, filename string) format {
	switch {
	case bytes.HasPrefix(raw, magicPDF):
		return formatPDF
	case bytes.HasPrefix(raw, magicPNG), bytes.HasPrefix(raw, magicJPEG):
		return formatImage
	case bytes.HasPrefix(raw, magicTIFF[0]), bytes.HasPrefix(raw, magicTIFF[1]):
		return formatImage
	case bytes.HasPrefix(raw, magicZIP):
		return formatSpreadsheet
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".tsv":
		return formatSpreadsheet
	case ".xml":
		return formatXML
	}

	// A BOM or leading whitespace can hide the XML declaration.
	head := bytes.TrimLeft(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")), " \t\r\n")
	if bytes.HasPrefix(head, []byte("<?xml")) || bytes.HasPrefix(head, []byte("<")) {
		return formatXML
	}

	return formatUnknown
}
