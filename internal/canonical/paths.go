package canonical

import (
	"fmt"
	"regexp"
	"strconv"

	"docparse/internal/domain"
)

var lineItemPathRe = regexp.MustCompile(`^line_items\[(\d+)\]\.([a-z_]+)$`)

// IsLineItemPath reports whether a field path addresses a line item field.
func IsLineItemPath(path string) bool {
	return lineItemPathRe.MatchString(path)
}

// LineItemPaths lists every field path of the line item at the given index,
// including the optional ones.
func LineItemPaths(index int) []string {
	prefix := fmt.Sprintf("line_items[%d]", index)
	fields := []string{"description", "quantity", "unit_price", "discount", "tax_rate", "tax_amount", "line_total"}
	paths := make([]string, 0, len(fields))
	for _, f := range fields {
		paths = append(paths, prefix+"."+f)
	}
	return paths
}

// Change records one field's old and new value in a Diff.
type Change struct {
	Old any
	New any
}

// Flatten converts the document into a flat map of field path → value.
// Optional fields that are absent are omitted from the map entirely, so a
// missing value never masquerades as an explicit zero.
func (d *Document) Flatten() map[string]any {
	out := map[string]any{
		"document.type":       string(d.Document.Type),
		"document.number":     d.Document.Number,
		"document.issue_date": d.Document.IssueDate,
		"document.due_date":   d.Document.DueDate,
		"document.currency":   d.Document.Currency,

		"supplier.name":                d.Supplier.Name,
		"supplier.tax_id":              d.Supplier.TaxID,
		"supplier.address.street":      d.Supplier.Address.Street,
		"supplier.address.city":        d.Supplier.Address.City,
		"supplier.address.postal_code": d.Supplier.Address.PostalCode,
		"supplier.address.country":     d.Supplier.Address.Country,

		"customer.name":                d.Customer.Name,
		"customer.tax_id":              d.Customer.TaxID,
		"customer.address.street":      d.Customer.Address.Street,
		"customer.address.city":        d.Customer.Address.City,
		"customer.address.postal_code": d.Customer.Address.PostalCode,
		"customer.address.country":     d.Customer.Address.Country,

		"totals.subtotal":     d.Totals.Subtotal,
		"totals.total_tax":    d.Totals.TotalTax,
		"totals.total_amount": d.Totals.TotalAmount,

		"payment.method":    d.Payment.Method,
		"payment.terms":     d.Payment.Terms,
		"payment.reference": d.Payment.Reference,
	}

	if d.Totals.ShippingAmount != nil {
		out["totals.shipping_amount"] = *d.Totals.ShippingAmount
	}
	if d.Totals.AmountDue != nil {
		out["totals.amount_due"] = *d.Totals.AmountDue
	}
	if d.Totals.RoundingAmount != nil {
		out["totals.rounding_amount"] = *d.Totals.RoundingAmount
	}

	for i := range d.LineItems {
		item := &d.LineItems[i]
		prefix := fmt.Sprintf("line_items[%d]", i)
		out[prefix+".description"] = item.Description
		out[prefix+".quantity"] = item.Quantity
		out[prefix+".unit_price"] = item.UnitPrice
		out[prefix+".tax_amount"] = item.TaxAmount
		out[prefix+".line_total"] = item.LineTotal
		if item.Discount != nil {
			out[prefix+".discount"] = *item.Discount
		}
		if item.TaxRate != nil {
			out[prefix+".tax_rate"] = *item.TaxRate
		}
	}

	return out
}

// Apply sets a single field by path. It returns an error for unknown paths,
// out-of-range line item indices, and mismatched value types. Only the
// correction engine's merge should call Apply; ad-hoc writes lose provenance.
func (d *Document) Apply(path string, value any) error {
	if m := lineItemPathRe.FindStringSubmatch(path); m != nil {
		idx, _ := strconv.Atoi(m[1])
		if idx < 0 || idx >= len(d.LineItems) {
			return fmt.Errorf("apply %s: line item index out of range", path)
		}
		return d.LineItems[idx].apply(path, m[2], value)
	}

	switch path {
	case "document.type":
		s, err := asString(path, value)
		if err != nil {
			return err
		}
		d.Document.Type = docTypeFromString(s)
	case "document.number":
		return applyString(path, &d.Document.Number, value)
	case "document.issue_date":
		return applyString(path, &d.Document.IssueDate, value)
	case "document.due_date":
		return applyString(path, &d.Document.DueDate, value)
	case "document.currency":
		return applyString(path, &d.Document.Currency, value)

	case "supplier.name":
		return applyString(path, &d.Supplier.Name, value)
	case "supplier.tax_id":
		return applyString(path, &d.Supplier.TaxID, value)
	case "supplier.address.street":
		return applyString(path, &d.Supplier.Address.Street, value)
	case "supplier.address.city":
		return applyString(path, &d.Supplier.Address.City, value)
	case "supplier.address.postal_code":
		return applyString(path, &d.Supplier.Address.PostalCode, value)
	case "supplier.address.country":
		return applyString(path, &d.Supplier.Address.Country, value)

	case "customer.name":
		return applyString(path, &d.Customer.Name, value)
	case "customer.tax_id":
		return applyString(path, &d.Customer.TaxID, value)
	case "customer.address.street":
		return applyString(path, &d.Customer.Address.Street, value)
	case "customer.address.city":
		return applyString(path, &d.Customer.Address.City, value)
	case "customer.address.postal_code":
		return applyString(path, &d.Customer.Address.PostalCode, value)
	case "customer.address.country":
		return applyString(path, &d.Customer.Address.Country, value)

	case "totals.subtotal":
		return applyFloat(path, &d.Totals.Subtotal, value)
	case "totals.total_tax":
		return applyFloat(path, &d.Totals.TotalTax, value)
	case "totals.total_amount":
		return applyFloat(path, &d.Totals.TotalAmount, value)
	case "totals.shipping_amount":
		return applyOptFloat(path, &d.Totals.ShippingAmount, value)
	case "totals.amount_due":
		return applyOptFloat(path, &d.Totals.AmountDue, value)
	case "totals.rounding_amount":
		return applyOptFloat(path, &d.Totals.RoundingAmount, value)

	case "payment.method":
		return applyString(path, &d.Payment.Method, value)
	case "payment.terms":
		return applyString(path, &d.Payment.Terms, value)
	case "payment.reference":
		return applyString(path, &d.Payment.Reference, value)

	default:
		return fmt.Errorf("apply: unknown field path %q", path)
	}
	return nil
}

func (li *LineItem) apply(path, field string, value any) error {
	switch field {
	case "description":
		return applyString(path, &li.Description, value)
	case "quantity":
		return applyFloat(path, &li.Quantity, value)
	case "unit_price":
		return applyFloat(path, &li.UnitPrice, value)
	case "discount":
		return applyOptFloat(path, &li.Discount, value)
	case "tax_rate":
		return applyOptFloat(path, &li.TaxRate, value)
	case "tax_amount":
		return applyFloat(path, &li.TaxAmount, value)
	case "line_total":
		return applyFloat(path, &li.LineTotal, value)
	default:
		return fmt.Errorf("apply: unknown line item field %q", field)
	}
}

// Diff compares this document against another and returns the set of changed
// field paths with their (old, new) values. Fields absent on both sides are
// not reported; a field present on only one side is.
func (d *Document) Diff(other *Document) map[string]Change {
	a := d.Flatten()
	b := other.Flatten()
	changes := make(map[string]Change)

	for path, oldVal := range a {
		newVal, ok := b[path]
		if !ok {
			changes[path] = Change{Old: oldVal, New: nil}
			continue
		}
		if oldVal != newVal {
			changes[path] = Change{Old: oldVal, New: newVal}
		}
	}
	for path, newVal := range b {
		if _, ok := a[path]; !ok {
			changes[path] = Change{Old: nil, New: newVal}
		}
	}
	return changes
}

func asString(path string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("apply %s: expected string, got %T", path, value)
	}
	return s, nil
}

func asFloat(path string, value any) (float64, error) {
	f, ok := value.(float64)
	if !ok {
		return 0, fmt.Errorf("apply %s: expected number, got %T", path, value)
	}
	return f, nil
}

func applyString(path string, dst *string, value any) error {
	s, err := asString(path, value)
	if err != nil {
		return err
	}
	*dst = s
	return nil
}

func applyFloat(path string, dst *float64, value any) error {
	f, err := asFloat(path, value)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

func applyOptFloat(path string, dst **float64, value any) error {
	if value == nil {
		*dst = nil
		return nil
	}
	f, err := asFloat(path, value)
	if err != nil {
		return err
	}
	*dst = &f
	return nil
}

func docTypeFromString(s string) domain.DocumentType {
	switch domain.DocumentType(s) {
	case domain.DocTypeInvoice, domain.DocTypeCreditNote, domain.DocTypeReceipt:
		return domain.DocumentType(s)
	default:
		return domain.DocTypeUnknown
	}
}
