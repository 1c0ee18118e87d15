package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"docparse/internal/canonical"
)

const (
	summarySheet = "Document"
	linesSheet   = "Line Items"
)

// WriteXLSX writes the document as a two-sheet workbook: a key/value summary
// and the line item table.
func WriteXLSX(w io.Writer, doc *canonical.Document) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(linesSheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}

	if err := writeSummary(f, doc); err != nil {
		return err
	}
	if err := writeLines(f, doc); err != nil {
		return err
	}

	return f.Write(w)
}

func writeSummary(f *excelize.File, doc *canonical.Document) error {
	rows := [][]any{
		{"Document Number", doc.Document.Number},
		{"Document Type", string(doc.Document.Type)},
		{"Issue Date", doc.Document.IssueDate},
		{"Due Date", doc.Document.DueDate},
		{"Currency", doc.Document.Currency},
		{"Supplier", doc.Supplier.Name},
		{"Supplier Tax ID", doc.Supplier.TaxID},
		{"Customer", doc.Customer.Name},
		{"Customer Tax ID", doc.Customer.TaxID},
		{"Subtotal", doc.Totals.Subtotal},
		{"Total Tax", doc.Totals.TotalTax},
		{"Total Amount", doc.Totals.TotalAmount},
		{"Validation Status", string(doc.Metadata.ValidationStatus)},
	}
	if doc.Totals.AmountDue != nil {
		rows = append(rows, []any{"Amount Due", *doc.Totals.AmountDue})
	}
	if doc.Notes != "" {
		rows = append(rows, []any{"Notes", doc.Notes})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("writing summary row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeLines(f *excelize.File, doc *canonical.Document) error {
	header := []any{"Description", "Quantity", "Unit", "Unit Price", "Discount", "Tax Rate", "Tax Amount", "Line Total"}
	if err := f.SetSheetRow(linesSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i := range doc.LineItems {
		li := &doc.LineItems[i]
		row := []any{
			li.Description,
			li.Quantity,
			li.Unit,
			li.UnitPrice,
			optCell(li.Discount),
			optCell(li.TaxRate),
			li.TaxAmount,
			li.LineTotal,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(linesSheet, cell, &row); err != nil {
			return fmt.Errorf("writing line %d: %w", i+1, err)
		}
	}
	return nil
}

func optCell(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
