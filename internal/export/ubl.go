package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"docparse/internal/canonical"
)

// UBL 2.1 invoice rendering. Structs mirror the subset of the schema the
// canonical model can populate; namespace prefixes are written literally.

const (
	ublNamespace = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	cacNamespace = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	cbcNamespace = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"

	// UNTDID 1001 document type codes.
	invoiceTypeCode    = "380"
	creditNoteTypeCode = "381"

	ublCustomizationID = "urn:oasis:names:specification:ubl:xsd:Invoice-2"

	// Peppol BIS Billing 3.0 identifiers required for EN 16931 compliance.
	en16931CustomizationID = "urn:cen.eu:en16931:2017#compliant#urn:fdc:peppol.eu:2017:poacc:billing:3.0"
	en16931ProfileID       = "urn:fdc:peppol.eu:2017:poacc:billing:01:1.0"
)

type ublAmount struct {
	Value      string `xml:",chardata"`
	CurrencyID string `xml:"currencyID,attr"`
}

type ublQuantity struct {
	Value    string `xml:",chardata"`
	UnitCode string `xml:"unitCode,attr"`
}

type ublCountry struct {
	IdentificationCode string `xml:"cbc:IdentificationCode"`
}

type ublAddress struct {
	StreetName string      `xml:"cbc:StreetName,omitempty"`
	CityName   string      `xml:"cbc:CityName,omitempty"`
	PostalZone string      `xml:"cbc:PostalZone,omitempty"`
	Country    *ublCountry `xml:"cac:Country,omitempty"`
}

type ublTaxScheme struct {
	ID string `xml:"cbc:ID"`
}

type ublPartyTaxScheme struct {
	CompanyID string       `xml:"cbc:CompanyID"`
	TaxScheme ublTaxScheme `xml:"cac:TaxScheme"`
}

type ublPartyName struct {
	Name string `xml:"cbc:Name"`
}

type ublLegalEntity struct {
	RegistrationName string `xml:"cbc:RegistrationName"`
}

type ublParty struct {
	PartyName      *ublPartyName      `xml:"cac:PartyName,omitempty"`
	PostalAddress  *ublAddress        `xml:"cac:PostalAddress,omitempty"`
	PartyTaxScheme *ublPartyTaxScheme `xml:"cac:PartyTaxScheme,omitempty"`
	LegalEntity    ublLegalEntity     `xml:"cac:PartyLegalEntity"`
}

type ublPartyWrapper struct {
	Party ublParty `xml:"cac:Party"`
}

type ublTaxCategory struct {
	ID        string       `xml:"cbc:ID"`
	Percent   string       `xml:"cbc:Percent"`
	TaxScheme ublTaxScheme `xml:"cac:TaxScheme"`
}

type ublTaxSubtotal struct {
	TaxableAmount ublAmount      `xml:"cbc:TaxableAmount"`
	TaxAmount     ublAmount      `xml:"cbc:TaxAmount"`
	TaxCategory   ublTaxCategory `xml:"cac:TaxCategory"`
}

type ublTaxTotal struct {
	TaxAmount   ublAmount        `xml:"cbc:TaxAmount"`
	TaxSubtotal []ublTaxSubtotal `xml:"cac:TaxSubtotal"`
}

type ublMonetaryTotal struct {
	LineExtensionAmount ublAmount `xml:"cbc:LineExtensionAmount"`
	TaxExclusiveAmount  ublAmount `xml:"cbc:TaxExclusiveAmount"`
	TaxInclusiveAmount  ublAmount `xml:"cbc:TaxInclusiveAmount"`
	PayableAmount       ublAmount `xml:"cbc:PayableAmount"`
}

type ublItem struct {
	Name        string         `xml:"cbc:Name"`
	TaxCategory ublTaxCategory `xml:"cac:ClassifiedTaxCategory"`
}

type ublPrice struct {
	PriceAmount ublAmount `xml:"cbc:PriceAmount"`
}

type ublInvoiceLine struct {
	ID                  string      `xml:"cbc:ID"`
	InvoicedQuantity    ublQuantity `xml:"cbc:InvoicedQuantity"`
	LineExtensionAmount ublAmount   `xml:"cbc:LineExtensionAmount"`
	Item                ublItem     `xml:"cac:Item"`
	Price               ublPrice    `xml:"cac:Price"`
}

type ublInvoice struct {
	XMLName      xml.Name `xml:"Invoice"`
	Namespace    string   `xml:"xmlns,attr"`
	CACNamespace string   `xml:"xmlns:cac,attr"`
	CBCNamespace string   `xml:"xmlns:cbc,attr"`

	UBLVersionID         string `xml:"cbc:UBLVersionID"`
	CustomizationID      string `xml:"cbc:CustomizationID"`
	ProfileID            string `xml:"cbc:ProfileID,omitempty"`
	ID                   string `xml:"cbc:ID"`
	IssueDate            string `xml:"cbc:IssueDate"`
	DueDate              string `xml:"cbc:DueDate,omitempty"`
	InvoiceTypeCode      string `xml:"cbc:InvoiceTypeCode"`
	DocumentCurrencyCode string `xml:"cbc:DocumentCurrencyCode"`

	Supplier           ublPartyWrapper  `xml:"cac:AccountingSupplierParty"`
	Customer           ublPartyWrapper  `xml:"cac:AccountingCustomerParty"`
	TaxTotal           ublTaxTotal      `xml:"cac:TaxTotal"`
	LegalMonetaryTotal ublMonetaryTotal `xml:"cac:LegalMonetaryTotal"`
	InvoiceLines       []ublInvoiceLine `xml:"cac:InvoiceLine"`
}

// WriteUBL writes the document as a UBL 2.1 Invoice.
func WriteUBL(w io.Writer, doc *canonical.Document) error {
	return writeUBL(w, doc, ublCustomizationID, "")
}

// WriteEN16931 writes the document as an EN 16931 compliant UBL Invoice. The
// body is identical to UBL 2.1; only the customization and profile identifiers
// differ.
func WriteEN16931(w io.Writer, doc *canonical.Document) error {
	return writeUBL(w, doc, en16931CustomizationID, en16931ProfileID)
}

func writeUBL(w io.Writer, doc *canonical.Document, customizationID, profileID string) error {
	currency := doc.Document.Currency
	number := doc.Document.Number
	if number == "" {
		number = "UNKNOWN"
	}

	inv := ublInvoice{
		Namespace:            ublNamespace,
		CACNamespace:         cacNamespace,
		CBCNamespace:         cbcNamespace,
		UBLVersionID:         "2.1",
		CustomizationID:      customizationID,
		ProfileID:            profileID,
		ID:                   number,
		IssueDate:            doc.Document.IssueDate,
		DueDate:              doc.Document.DueDate,
		InvoiceTypeCode:      typeCode(doc),
		DocumentCurrencyCode: currency,
		Supplier:             ublPartyWrapper{Party: buildParty(&doc.Supplier)},
		Customer:             ublPartyWrapper{Party: buildParty(&doc.Customer)},
		TaxTotal:             buildTaxTotal(doc, currency),
		LegalMonetaryTotal:   buildMonetaryTotal(doc, currency),
	}

	for i := range doc.LineItems {
		inv.InvoiceLines = append(inv.InvoiceLines, buildLine(&doc.LineItems[i], i+1, currency))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(inv); err != nil {
		return fmt.Errorf("encoding ubl invoice: %w", err)
	}
	return enc.Close()
}

func typeCode(doc *canonical.Document) string {
	if doc.Document.Type == "credit_note" {
		return creditNoteTypeCode
	}
	return invoiceTypeCode
}

func buildParty(p *canonical.Party) ublParty {
	name := p.Name
	if name == "" {
		name = "Unknown"
	}
	out := ublParty{LegalEntity: ublLegalEntity{RegistrationName: name}}
	if p.Name != "" {
		out.PartyName = &ublPartyName{Name: p.Name}
	}
	addr := p.Address
	if addr.Street != "" || addr.City != "" || addr.PostalCode != "" || addr.Country != "" {
		postal := &ublAddress{
			StreetName: addr.Street,
			CityName:   addr.City,
			PostalZone: addr.PostalCode,
		}
		if addr.Country != "" {
			postal.Country = &ublCountry{IdentificationCode: addr.Country}
		}
		out.PostalAddress = postal
	}
	if p.TaxID != "" {
		out.PartyTaxScheme = &ublPartyTaxScheme{
			CompanyID: p.TaxID,
			TaxScheme: ublTaxScheme{ID: "VAT"},
		}
	}
	return out
}

// buildTaxTotal groups line items by tax rate into UBL tax subtotals.
func buildTaxTotal(doc *canonical.Document, currency string) ublTaxTotal {
	total := ublTaxTotal{
		TaxAmount: amount(doc.Totals.TotalTax, currency),
	}

	type bucket struct {
		taxable float64
		tax     float64
	}
	buckets := make(map[float64]*bucket)
	var rates []float64

	for i := range doc.LineItems {
		li := &doc.LineItems[i]
		rate := 0.0
		if li.TaxRate != nil {
			rate = *li.TaxRate
		}
		b, ok := buckets[rate]
		if !ok {
			b = &bucket{}
			buckets[rate] = b
			rates = append(rates, rate)
		}
		b.taxable += li.LineTotal - li.TaxAmount
		b.tax += li.TaxAmount
	}

	for _, rate := range rates {
		b := buckets[rate]
		total.TaxSubtotal = append(total.TaxSubtotal, ublTaxSubtotal{
			TaxableAmount: amount(b.taxable, currency),
			TaxAmount:     amount(b.tax, currency),
			TaxCategory: ublTaxCategory{
				ID:        "S",
				Percent:   formatAmount(rate),
				TaxScheme: ublTaxScheme{ID: "VAT"},
			},
		})
	}
	return total
}

func buildMonetaryTotal(doc *canonical.Document, currency string) ublMonetaryTotal {
	payable := doc.Totals.TotalAmount
	if doc.Totals.AmountDue != nil {
		payable = *doc.Totals.AmountDue
	}
	return ublMonetaryTotal{
		LineExtensionAmount: amount(doc.Totals.Subtotal, currency),
		TaxExclusiveAmount:  amount(doc.Totals.Subtotal, currency),
		TaxInclusiveAmount:  amount(doc.Totals.TotalAmount, currency),
		PayableAmount:       amount(payable, currency),
	}
}

func buildLine(li *canonical.LineItem, number int, currency string) ublInvoiceLine {
	unit := li.Unit
	if unit == "" {
		unit = "EA"
	}
	name := li.Description
	if name == "" {
		name = "Item"
	}
	rate := "0"
	if li.TaxRate != nil {
		rate = formatAmount(*li.TaxRate)
	}
	return ublInvoiceLine{
		ID:                  strconv.Itoa(number),
		InvoicedQuantity:    ublQuantity{Value: formatAmount(li.Quantity), UnitCode: unit},
		LineExtensionAmount: amount(li.LineTotal-li.TaxAmount, currency),
		Item: ublItem{
			Name: name,
			TaxCategory: ublTaxCategory{
				ID:        "S",
				Percent:   rate,
				TaxScheme: ublTaxScheme{ID: "VAT"},
			},
		},
		Price: ublPrice{PriceAmount: amount(li.UnitPrice, currency)},
	}
}

func amount(v float64, currency string) ublAmount {
	return ublAmount{Value: formatAmount(v), CurrencyID: currency}
}
