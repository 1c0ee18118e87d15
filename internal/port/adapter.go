package port

import (
	"context"

	"docparse/internal/domain"
)

// RawContent is the format-neutral intermediate a format adapter produces:
// text, an optional structured form, and an extraction confidence when the
// adapter involved OCR.
type RawContent struct {
	Text           string
	StructuredData map[string]any
	SourceType     domain.SourceType // resolved type (e.g. pdf_native vs pdf_scanned)
	OCRConfidence  *float64
	Warnings       []string
}

// HasContent reports whether the adapter produced anything usable.
func (r *RawContent) HasContent() bool {
	return r != nil && (r.Text != "" || len(r.StructuredData) > 0)
}

// FormatAdapter converts one class of raw file into RawContent. Failures are
// typed errors, never partial output.
type FormatAdapter interface {
	Adapt(ctx context.Context, raw []byte, filename string) (*RawContent, error)
}

// TextRecognizer performs OCR on an image. Implementations must honor ctx.
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte) (text string, confidence float64, err error)
}
