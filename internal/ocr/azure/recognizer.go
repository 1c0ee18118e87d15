// Package azure implements text recognition against the Azure Computer
// Vision OCR API.
package azure

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
)

// The OCR endpoint reports no numeric confidence; printed-text recognition on
// a preprocessed page is treated as this reliable until proven otherwise.
const printedTextConfidence = 0.9

// Recognizer implements port.TextRecognizer using Azure Computer Vision.
type Recognizer struct {
	client *computervision.BaseClient
}

// NewRecognizer creates a recognizer against the given endpoint.
func NewRecognizer(endpoint, apiKey string) *Recognizer {
	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(apiKey)
	return &Recognizer{client: &client}
}

func (r *Recognizer) Recognize(ctx context.Context, image []byte) (string, float64, error) {
	imageReader := io.NopCloser(bytes.NewReader(image))

	result, err := r.client.RecognizePrintedTextInStream(
		ctx,
		true,
		imageReader,
		computervision.OcrLanguagesUnk,
	)
	if err != nil {
		return "", 0, fmt.Errorf("azure ocr: %w", err)
	}

	text := flattenOCRResult(result)
	if text == "" {
		return "", 0, nil
	}
	return text, printedTextConfidence, nil
}

// flattenOCRResult joins the region/line/word hierarchy into plain text,
// one line per OCR line, preserving region order.
func flattenOCRResult(result computervision.OcrResult) string {
	if result.Regions == nil {
		return ""
	}

	var b strings.Builder
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			if line.Words == nil {
				continue
			}
			var words []string
			for _, word := range *line.Words {
				if word.Text != nil {
					words = append(words, *word.Text)
				}
			}
			if len(words) > 0 {
				b.WriteString(strings.Join(words, " "))
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
