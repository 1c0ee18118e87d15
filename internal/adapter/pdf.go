package adapter

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/gen2brain/go-fitz"

	"docparse/internal/domain"
	"docparse/internal/port"
)

const (
	// minNativeTextLen is the threshold below which a PDF's text layer is
	// considered absent and the document treated as scanned.
	minNativeTextLen = 50
	// ocrRenderDPI is the render resolution for pages sent to OCR.
	ocrRenderDPI = 300
)

// PDFAdapter extracts text from PDFs, falling back to OCR on rendered pages
// when the text layer is missing or too sparse.
type PDFAdapter struct {
	recognizer port.TextRecognizer
}

// NewPDFAdapter creates a PDF adapter. The recognizer may be nil when OCR is
// not configured; scanned PDFs then fail with a typed error.
func NewPDFAdapter(recognizer port.TextRecognizer) *PDFAdapter {
	return &PDFAdapter{recognizer: recognizer}
}

func (a *PDFAdapter) Adapt(ctx context.Context, raw []byte, filename string) (*port.RawContent, error) {
	doc, err := fitz.NewFromMemory(raw)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer doc.Close()

	var pages []string
	var warnings []string
	numPages := doc.NumPage()

	for i := 0; i < numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := doc.Text(i)
		if err != nil {
			log.Printf("adapter.PDFAdapter: page %d of %s: %v", i+1, filename, err)
			warnings = append(warnings, fmt.Sprintf("page %d text extraction failed", i+1))
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}

	combined := strings.TrimSpace(strings.Join(pages, "\n\n"))
	if len(combined) >= minNativeTextLen {
		return &port.RawContent{
			Text:       combined,
			SourceType: domain.SourcePDFNative,
			Warnings:   warnings,
		}, nil
	}

	return a.adaptScanned(ctx, doc, numPages, warnings)
}

// adaptScanned renders each page and runs OCR, averaging the per-page
// confidences into one document-level score.
func (a *PDFAdapter) adaptScanned(ctx context.Context, doc *fitz.Document, numPages int, warnings []string) (*port.RawContent, error) {
	if a.recognizer == nil {
		return nil, fmt.Errorf("scanned pdf requires OCR but no recognizer is configured")
	}

	var pages []string
	var confSum float64
	var confCount int

	for i := 0; i < numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImagePNG(i, ocrRenderDPI)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page %d render failed", i+1))
			continue
		}
		text, conf, err := a.recognizer.Recognize(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("ocr on page %d: %w", i+1, err)
		}
		pages = append(pages, strings.TrimSpace(text))
		confSum += conf
		confCount++
	}

	content := &port.RawContent{
		Text:       strings.TrimSpace(strings.Join(pages, "\n\n")),
		SourceType: domain.SourcePDFScanned,
		Warnings:   warnings,
	}
	if confCount > 0 {
		avg := confSum / float64(confCount)
		content.OCRConfidence = &avg
	}
	return content, nil
}
