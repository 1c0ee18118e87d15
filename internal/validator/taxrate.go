package validator

import (
	"fmt"
	"strings"

	"docparse/internal/canonical"
	"docparse/internal/domain"
)

// taxRateRule checks that each line item's tax rate is a known rate for the
// document's jurisdiction. The jurisdiction comes from the supplier country.
// No country on the document means nothing to check; a country outside the
// rate table downgrades every finding to a warning.
type taxRateRule struct {
	tol Tolerance
}

// NewTaxRateRule creates the tax-rate plausibility rule.
func NewTaxRateRule(tol Tolerance) Rule {
	return &taxRateRule{tol: tol}
}

func (r *taxRateRule) RuleKey() string           { return "tax.rate_plausibility" }
func (r *taxRateRule) Severity() domain.Severity { return domain.SeverityWarning }

func (r *taxRateRule) Check(doc *canonical.Document) []Discrepancy {
	country := strings.ToUpper(strings.TrimSpace(doc.Supplier.Address.Country))
	if country == "" {
		return nil
	}

	rates, known := CountryVATRates[country]
	var out []Discrepancy
	for i := range doc.LineItems {
		item := &doc.LineItems[i]
		if item.TaxRate == nil || *item.TaxRate == 0 {
			continue
		}
		fp := fmt.Sprintf("line_items[%d].tax_rate", i)

		if !known {
			out = append(out, Discrepancy{
				FieldPath: fp,
				RuleKey:   r.RuleKey(),
				Expected:  "known jurisdiction",
				Actual:    fmtf(*item.TaxRate),
				Message:   fmt.Sprintf("%s: no VAT rate table for jurisdiction %s", fp, country),
				Severity:  domain.SeverityWarning,
			})
			continue
		}

		if !r.matchesKnownRate(*item.TaxRate, rates) {
			out = append(out, Discrepancy{
				FieldPath: fp,
				RuleKey:   r.RuleKey(),
				Expected:  ratesString(rates),
				Actual:    fmtf(*item.TaxRate),
				Message:   fmt.Sprintf("%s: %s%% is not a standard VAT rate for %s", fp, fmtf(*item.TaxRate), country),
				Severity:  domain.SeverityError,
			})
		}
	}
	return out
}

func (r *taxRateRule) matchesKnownRate(rate float64, rates []float64) bool {
	for _, known := range rates {
		if r.tol.Close(rate, known) {
			return true
		}
	}
	return false
}

func ratesString(rates []float64) string {
	parts := make([]string, 0, len(rates))
	for _, r := range rates {
		parts = append(parts, fmtf(r)+"%")
	}
	return strings.Join(parts, ", ")
}
