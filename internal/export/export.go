// Package export renders canonical documents into downstream formats: CSV,
// Excel workbooks and UBL 2.1 XML.
package export

import (
	"fmt"
	"io"

	"docparse/internal/canonical"
	"docparse/internal/domain"
)

// Format names a supported export format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
	FormatUBL     Format = "ubl"
	FormatEN16931 Format = "en16931"
)

// ParseFormat resolves a format name from a request parameter.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatXLSX, FormatUBL, FormatEN16931:
		return Format(s), nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedExport, s)
	}
}

// ContentType returns the MIME type for a format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatUBL, FormatEN16931:
		return "application/xml"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the file extension for a format, without the dot.
func (f Format) Extension() string {
	if f == FormatUBL || f == FormatEN16931 {
		return "xml"
	}
	return string(f)
}

// Write renders the document to w in the given format.
func Write(w io.Writer, doc *canonical.Document, format Format) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, doc)
	case FormatXLSX:
		return WriteXLSX(w, doc)
	case FormatUBL:
		return WriteUBL(w, doc)
	case FormatEN16931:
		return WriteEN16931(w, doc)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedExport, format)
	}
}
