package adapter

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"

	"docparse/internal/domain"
	"docparse/internal/port"
)

// ImageAdapter preprocesses a photographed or scanned page and runs OCR.
type ImageAdapter struct {
	recognizer port.TextRecognizer
}

// NewImageAdapter creates an image adapter.
func NewImageAdapter(recognizer port.TextRecognizer) *ImageAdapter {
	return &ImageAdapter{recognizer: recognizer}
}

func (a *ImageAdapter) Adapt(ctx context.Context, raw []byte, filename string) (*port.RawContent, error) {
	if a.recognizer == nil {
		return nil, fmt.Errorf("image input requires OCR but no recognizer is configured")
	}

	src, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	// Convert to grayscale and boost contrast and sharpness so printed text
	// survives poor lighting and low-quality scans.
	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustBrightness(img, 10)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding preprocessed image: %w", err)
	}

	text, conf, err := a.recognizer.Recognize(ctx, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}

	return &port.RawContent{
		Text:          text,
		SourceType:    domain.SourceImage,
		OCRConfidence: &conf,
	}, nil
}
