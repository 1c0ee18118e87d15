package extractor

import (
	"fmt"
	"strings"

	"docparse/internal/port"
)

// BuildExtractionPrompt returns the initial extraction prompt. The document
// type hint narrows the schema explanation when the caller already knows it.
func BuildExtractionPrompt(documentType string) string {
	if documentType == "" || documentType == "unknown" {
		documentType = "financial"
	}
	return `You are a document data extraction assistant. Analyze the provided ` + documentType + ` document text and extract ALL data into the following JSON structure.

IMPORTANT INSTRUCTIONS:
- The document may span multiple pages. Extract ALL line items from every page and every section into a single flat "line_items" array.
- It is critical that you extract EVERY line item. Do not skip, summarize, or omit any items.
- Normalize all dates to ISO 8601 YYYY-MM-DD format. Strip timestamps and non-date annotations.
- Currency must be a 3-letter ISO 4217 code (e.g. "EUR", "USD").
- Tax rates are percentages (21 means 21%, not 0.21).
- Monetary amounts are plain numbers with no thousands separators.

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation - just the raw JSON object.

Return two top-level keys: "data" and "confidence_scores".

The "data" object must follow this schema:
{
  "document": {
    "type": "invoice",
    "number": "",
    "issue_date": "",
    "due_date": "",
    "currency": ""
  },
  "supplier": {
    "name": "", "tax_id": "",
    "address": {"street": "", "city": "", "postal_code": "", "country": ""}
  },
  "customer": {
    "name": "", "tax_id": "",
    "address": {"street": "", "city": "", "postal_code": "", "country": ""}
  },
  "line_items": [
    {
      "description": "",
      "quantity": 0, "unit": "",
      "unit_price": 0, "discount": 0,
      "tax_rate": 0, "tax_amount": 0,
      "line_total": 0
    }
  ],
  "totals": {
    "subtotal": 0, "total_tax": 0,
    "shipping_amount": 0,
    "total_amount": 0, "amount_due": 0,
    "rounding_amount": 0
  },
  "payment": {
    "method": "", "terms": "", "reference": ""
  },
  "notes": ""
}

"document.type" must be one of: "invoice", "credit_note", "receipt", "unknown". "country" must be a 2-letter ISO 3166-1 code.

The "confidence_scores" object should mirror the "data" structure but with float values between 0.0 and 1.0 indicating your confidence for each extracted field. Use 0.0 for fields not found in the document.

If a field is not present in the document, use empty string for text and 0 for numbers. Omit "discount", "tax_rate", "shipping_amount", "amount_due" and "rounding_amount" entirely when the document does not state them.`
}

// BuildRevalidationPrompt returns the prompt for a correction round: the base
// extraction prompt plus the discrepancies found in the previous attempt and
// the fields to focus on. The model still returns the full document.
func BuildRevalidationPrompt(documentType string, discrepancies []port.DiscrepancyContext, focusFields []string) string {
	var b strings.Builder
	b.WriteString(BuildExtractionPrompt(documentType))
	b.WriteString("\n\nPREVIOUS EXTRACTION ISSUES:\nA prior extraction of this document failed consistency checks. Re-examine the document carefully, paying particular attention to the fields listed below, and return the complete corrected JSON.\n")

	for _, d := range discrepancies {
		fmt.Fprintf(&b, "- %s: %s", d.FieldPath, d.Message)
		if d.Expected != "" || d.Actual != "" {
			fmt.Fprintf(&b, " (extracted %s, expected %s)", d.Actual, d.Expected)
		}
		b.WriteString("\n")
	}

	if len(focusFields) > 0 {
		b.WriteString("\nFOCUS FIELDS: " + strings.Join(focusFields, ", ") + "\n")
		b.WriteString("Do not change fields that are not listed above unless the document clearly contradicts the prior value.\n")
	}

	return b.String()
}

// PromptFor selects the right prompt for an extraction request.
func PromptFor(input port.ExtractInput) string {
	docType := string(input.DocumentType)
	if len(input.Discrepancies) > 0 {
		return BuildRevalidationPrompt(docType, input.Discrepancies, input.FocusFields)
	}
	return BuildExtractionPrompt(docType)
}
