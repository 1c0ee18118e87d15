package canonical

import (
	"time"

	"github.com/google/uuid"

	"docparse/internal/domain"
)

// SchemaVersion is the canonical schema version stamped on every new draft.
const SchemaVersion = "1.0.0"

// Document is the canonical structured representation of a financial document.
// A draft is created once per parse request and mutated only through the
// correction engine's merge; SchemaVersion is fixed at construction.
type Document struct {
	SchemaVersion string       `json:"schema_version"`
	Metadata      Metadata     `json:"metadata"`
	Document      DocumentInfo `json:"document"`
	Supplier      Party        `json:"supplier"`
	Customer      Party        `json:"customer"`
	LineItems     []LineItem   `json:"line_items"`
	Totals        Totals       `json:"totals"`
	Payment       Payment      `json:"payment"`
	Notes         string       `json:"notes,omitempty"`
}

// Metadata holds processing metadata for a document.
type Metadata struct {
	DocumentID       uuid.UUID               `json:"document_id"`
	SourceFile       string                  `json:"source_file"`
	SourceType       domain.SourceType       `json:"source_type"`
	ProcessedAt      time.Time               `json:"processed_at"`
	OCRConfidence    *float64                `json:"ocr_confidence,omitempty"`
	ValidationStatus domain.ValidationStatus `json:"validation_status"`
}

// DocumentInfo holds the document header.
type DocumentInfo struct {
	Type      domain.DocumentType `json:"type"`
	Number    string              `json:"number"`
	IssueDate string              `json:"issue_date"`
	DueDate   string              `json:"due_date"`
	Currency  string              `json:"currency"`
}

// Party represents a supplier or customer.
type Party struct {
	Name    string  `json:"name"`
	TaxID   string  `json:"tax_id"`
	Address Address `json:"address"`
}

// Address holds a party's postal address.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"` // ISO 3166-1 alpha-2
}

// LineItem is a single line on the document. TaxRate and Discount are pointers
// so that "not printed on the document" stays distinguishable from zero.
type LineItem struct {
	Description string   `json:"description"`
	Quantity    float64  `json:"quantity"`
	Unit        string   `json:"unit,omitempty"`
	UnitPrice   float64  `json:"unit_price"`
	Discount    *float64 `json:"discount,omitempty"`
	TaxRate     *float64 `json:"tax_rate,omitempty"` // percentage
	TaxAmount   float64  `json:"tax_amount"`
	LineTotal   float64  `json:"line_total"` // including tax for tax-inclusive documents
}

// Totals holds the document totals. Optional amounts are pointers.
type Totals struct {
	Subtotal       float64  `json:"subtotal"`
	TotalTax       float64  `json:"total_tax"`
	ShippingAmount *float64 `json:"shipping_amount,omitempty"`
	TotalAmount    float64  `json:"total_amount"`
	AmountDue      *float64 `json:"amount_due,omitempty"`
	RoundingAmount *float64 `json:"rounding_amount,omitempty"`
}

// Payment holds optional payment information.
type Payment struct {
	Method    string `json:"method,omitempty"`
	Terms     string `json:"terms,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// NewDraft creates a fresh draft for one parse request.
func NewDraft(sourceFile string, sourceType domain.SourceType) *Document {
	return &Document{
		SchemaVersion: SchemaVersion,
		Metadata: Metadata{
			DocumentID:       uuid.New(),
			SourceFile:       sourceFile,
			SourceType:       sourceType,
			ProcessedAt:      time.Now().UTC(),
			ValidationStatus: domain.ValidationStatusPending,
		},
		Document: DocumentInfo{
			Type:     domain.DocTypeInvoice,
			Currency: "EUR",
		},
	}
}

// Clone returns a deep copy of the document. The correction engine uses clones
// to build candidate drafts without touching the original.
func (d *Document) Clone() *Document {
	out := *d
	out.LineItems = d.CloneLineItems()
	out.Metadata.OCRConfidence = cloneFloat(d.Metadata.OCRConfidence)
	out.Totals.ShippingAmount = cloneFloat(d.Totals.ShippingAmount)
	out.Totals.AmountDue = cloneFloat(d.Totals.AmountDue)
	out.Totals.RoundingAmount = cloneFloat(d.Totals.RoundingAmount)
	return &out
}

// CloneLineItems returns a deep copy of the line item slice.
func (d *Document) CloneLineItems() []LineItem {
	items := make([]LineItem, len(d.LineItems))
	for i := range d.LineItems {
		item := d.LineItems[i]
		item.Discount = cloneFloat(d.LineItems[i].Discount)
		item.TaxRate = cloneFloat(d.LineItems[i].TaxRate)
		items[i] = item
	}
	return items
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// SumLineTotals returns the sum of all line totals.
func (d *Document) SumLineTotals() float64 {
	var sum float64
	for i := range d.LineItems {
		sum += d.LineItems[i].LineTotal
	}
	return sum
}

// SumLineTax returns the sum of all line item tax amounts.
func (d *Document) SumLineTax() float64 {
	var sum float64
	for i := range d.LineItems {
		sum += d.LineItems[i].TaxAmount
	}
	return sum
}

// NetAmount returns the line's expected net value: quantity times unit price,
// minus any discount. This is derived, never stored.
func (li *LineItem) NetAmount() float64 {
	net := li.Quantity * li.UnitPrice
	if li.Discount != nil {
		net -= *li.Discount
	}
	return net
}
