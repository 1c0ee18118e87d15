package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"docparse/internal/canonical"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row. One row per line item; document-level
// columns repeat on every row so the file stays self-describing when filtered.
var columns = []string{
	"Document Number",
	"Document Type",
	"Issue Date",
	"Due Date",
	"Currency",
	"Supplier Name",
	"Supplier Tax ID",
	"Supplier Country",
	"Customer Name",
	"Customer Tax ID",
	"Customer Country",
	"Line Description",
	"Quantity",
	"Unit",
	"Unit Price",
	"Discount",
	"Tax Rate",
	"Tax Amount",
	"Line Total",
	"Subtotal",
	"Total Tax",
	"Total Amount",
	"Amount Due",
	"Validation Status",
	"Processed At",
}

// WriteCSV writes the document as BOM-prefixed CSV.
func WriteCSV(w io.Writer, doc *canonical.Document) error {
	if _, err := w.Write(BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}

	base := baseRow(doc)
	if len(doc.LineItems) == 0 {
		if err := cw.Write(base); err != nil {
			return err
		}
	}
	for i := range doc.LineItems {
		row := make([]string, len(base))
		copy(row, base)
		fillLineColumns(row, &doc.LineItems[i])
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func baseRow(doc *canonical.Document) []string {
	row := make([]string, len(columns))
	row[0] = doc.Document.Number
	row[1] = string(doc.Document.Type)
	row[2] = doc.Document.IssueDate
	row[3] = doc.Document.DueDate
	row[4] = doc.Document.Currency
	row[5] = doc.Supplier.Name
	row[6] = doc.Supplier.TaxID
	row[7] = doc.Supplier.Address.Country
	row[8] = doc.Customer.Name
	row[9] = doc.Customer.TaxID
	row[10] = doc.Customer.Address.Country
	row[19] = formatAmount(doc.Totals.Subtotal)
	row[20] = formatAmount(doc.Totals.TotalTax)
	row[21] = formatAmount(doc.Totals.TotalAmount)
	row[22] = formatOptAmount(doc.Totals.AmountDue)
	row[23] = string(doc.Metadata.ValidationStatus)
	if !doc.Metadata.ProcessedAt.IsZero() {
		row[24] = doc.Metadata.ProcessedAt.Format(time.RFC3339)
	}
	return row
}

func fillLineColumns(row []string, li *canonical.LineItem) {
	row[11] = li.Description
	row[12] = formatAmount(li.Quantity)
	row[13] = li.Unit
	row[14] = formatAmount(li.UnitPrice)
	row[15] = formatOptAmount(li.Discount)
	row[16] = formatOptAmount(li.TaxRate)
	row[17] = formatAmount(li.TaxAmount)
	row[18] = formatAmount(li.LineTotal)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return formatAmount(*v)
}
