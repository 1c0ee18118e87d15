package port

import (
	"context"

	"docparse/internal/canonical"
	"docparse/internal/domain"
)

// DiscrepancyContext carries one validation finding into a targeted
// re-extraction request.
type DiscrepancyContext struct {
	FieldPath string `json:"field_path"`
	Expected  string `json:"expected"`
	Actual    string `json:"actual"`
	Message   string `json:"message"`
}

// ExtractInput is the request to the extraction capability.
type ExtractInput struct {
	Text           string            // raw text from the format adapter
	StructuredData map[string]any    // structured intermediate, when the adapter produced one
	SourceFile     string
	SourceType     domain.SourceType
	DocumentType   domain.DocumentType // schema hint; DocTypeUnknown lets the capability decide
	Discrepancies  []DiscrepancyContext // non-empty on correction rounds
	FocusFields    []string             // field paths to re-extract; empty means full extraction
}

// ExtractOutput is one extraction attempt's result: a draft plus per-field
// confidence. Fields the capability populated but could not score are reported
// at the conservative default by the implementation.
type ExtractOutput struct {
	Document    *canonical.Document
	Confidence  canonical.ConfidenceMap
	ModelUsed   string
	PromptUsed  string
}

// Extractor abstracts the AI extraction capability. Implementations must honor
// ctx cancellation and deadlines; a timed-out call is a failed attempt, not a
// crash.
type Extractor interface {
	Extract(ctx context.Context, input ExtractInput) (*ExtractOutput, error)
}
