package validator

import (
	"fmt"

	"docparse/internal/canonical"
	"docparse/internal/domain"
)

// arithmeticRule checks one arithmetic relationship between extracted fields.
type arithmeticRule struct {
	ruleKey  string
	severity domain.Severity
	check    func(*canonical.Document) []Discrepancy
}

func (r *arithmeticRule) RuleKey() string           { return r.ruleKey }
func (r *arithmeticRule) Severity() domain.Severity { return r.severity }
func (r *arithmeticRule) Check(doc *canonical.Document) []Discrepancy {
	return r.check(doc)
}

func fmtf(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func mismatch(ruleKey, fieldPath string, expected, actual float64, severity domain.Severity, detail string) Discrepancy {
	return Discrepancy{
		FieldPath: fieldPath,
		RuleKey:   ruleKey,
		Expected:  fmtf(expected),
		Actual:    fmtf(actual),
		Message:   fmt.Sprintf("%s: expected %s, got %s (%s)", fieldPath, fmtf(expected), fmtf(actual), detail),
		Severity:  severity,
	}
}

// taxInclusiveLines reports whether line totals include tax. Documents with a
// lump-sum tax at the bottom (US style) carry pre-tax line totals: every line
// tax is zero while a document-level total tax exists, and the line totals sum
// to the subtotal rather than the grand total.
func taxInclusiveLines(doc *canonical.Document, tol Tolerance) bool {
	if len(doc.LineItems) == 0 {
		return true
	}
	for i := range doc.LineItems {
		if effectiveLineTax(&doc.LineItems[i]) != 0 {
			return true
		}
	}
	if doc.Totals.TotalTax > 0 && tol.Close(doc.SumLineTotals(), doc.Totals.Subtotal) {
		return false
	}
	return true
}

// effectiveLineTax returns the line's tax amount, deriving it from the tax
// rate when the document prints only a rate. Absent both, it is zero.
func effectiveLineTax(li *canonical.LineItem) float64 {
	if li.TaxAmount != 0 {
		return li.TaxAmount
	}
	if li.TaxRate != nil {
		return li.NetAmount() * *li.TaxRate / 100
	}
	return 0
}

// ArithmeticRules returns the arithmetic checks in canonical order:
// line totals first, then subtotal, total tax, grand total, amount due.
func ArithmeticRules(tol Tolerance) []Rule {
	return []Rule{
		&arithmeticRule{
			ruleKey: "arithmetic.line_total", severity: domain.SeverityError,
			check: func(doc *canonical.Document) []Discrepancy {
				inclusive := taxInclusiveLines(doc, tol)
				var out []Discrepancy
				for i := range doc.LineItems {
					item := &doc.LineItems[i]
					fp := fmt.Sprintf("line_items[%d].line_total", i)
					net := item.NetAmount()
					expected := net
					if inclusive {
						expected = net + effectiveLineTax(item)
					}
					if !tol.LineClose(item.LineTotal, expected) {
						out = append(out, mismatch("arithmetic.line_total", fp, expected, item.LineTotal,
							domain.SeverityError,
							fmt.Sprintf("qty %s x price %s", fmtf(item.Quantity), fmtf(item.UnitPrice))))
					}
				}
				return out
			},
		},
		&arithmeticRule{
			ruleKey: "arithmetic.line_tax_amount", severity: domain.SeverityError,
			check: func(doc *canonical.Document) []Discrepancy {
				var out []Discrepancy
				for i := range doc.LineItems {
					item := &doc.LineItems[i]
					// Only check lines that print both a rate and a tax amount.
					if item.TaxRate == nil || item.TaxAmount == 0 {
						continue
					}
					fp := fmt.Sprintf("line_items[%d].tax_amount", i)
					expected := item.NetAmount() * *item.TaxRate / 100
					if !tol.LineClose(item.TaxAmount, expected) {
						out = append(out, mismatch("arithmetic.line_tax_amount", fp, expected, item.TaxAmount,
							domain.SeverityError,
							fmt.Sprintf("%s%% of %s", fmtf(*item.TaxRate), fmtf(item.NetAmount()))))
					}
				}
				return out
			},
		},
		&arithmeticRule{
			ruleKey: "arithmetic.subtotal", severity: domain.SeverityError,
			check: func(doc *canonical.Document) []Discrepancy {
				if len(doc.LineItems) == 0 {
					return nil
				}
				var computed float64
				if taxInclusiveLines(doc, tol) {
					for i := range doc.LineItems {
						item := &doc.LineItems[i]
						computed += item.LineTotal - effectiveLineTax(item)
					}
				} else {
					computed = doc.SumLineTotals()
				}
				if !tol.Close(doc.Totals.Subtotal, computed) {
					return []Discrepancy{mismatch("arithmetic.subtotal", "totals.subtotal",
						computed, doc.Totals.Subtotal, domain.SeverityError, "sum of line items")}
				}
				return nil
			},
		},
		&arithmeticRule{
			ruleKey: "arithmetic.total_tax", severity: domain.SeverityWarning,
			check: func(doc *canonical.Document) []Discrepancy {
				if len(doc.LineItems) == 0 || !taxInclusiveLines(doc, tol) {
					return nil
				}
				var lineTax float64
				for i := range doc.LineItems {
					lineTax += effectiveLineTax(&doc.LineItems[i])
				}
				if !tol.Close(doc.Totals.TotalTax, lineTax) {
					return []Discrepancy{mismatch("arithmetic.total_tax", "totals.total_tax",
						lineTax, doc.Totals.TotalTax, domain.SeverityWarning, "sum of line item taxes")}
				}
				return nil
			},
		},
		&arithmeticRule{
			ruleKey: "arithmetic.total_amount", severity: domain.SeverityError,
			check: func(doc *canonical.Document) []Discrepancy {
				expected := doc.Totals.Subtotal + doc.Totals.TotalTax
				if doc.Totals.ShippingAmount != nil {
					expected += *doc.Totals.ShippingAmount
				}
				if doc.Totals.RoundingAmount != nil {
					expected += *doc.Totals.RoundingAmount
				}
				if !tol.Close(doc.Totals.TotalAmount, expected) {
					return []Discrepancy{mismatch("arithmetic.total_amount", "totals.total_amount",
						expected, doc.Totals.TotalAmount, domain.SeverityError, "subtotal + tax + shipping")}
				}
				return nil
			},
		},
		&arithmeticRule{
			ruleKey: "arithmetic.amount_due", severity: domain.SeverityError,
			check: func(doc *canonical.Document) []Discrepancy {
				if doc.Totals.AmountDue == nil {
					return nil
				}
				if !tol.Close(*doc.Totals.AmountDue, doc.Totals.TotalAmount) {
					return []Discrepancy{mismatch("arithmetic.amount_due", "totals.amount_due",
						doc.Totals.TotalAmount, *doc.Totals.AmountDue, domain.SeverityError, "total amount")}
				}
				return nil
			},
		},
	}
}
