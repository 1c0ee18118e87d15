package validator

import (
	"fmt"
	"regexp"
	"strings"

	"docparse/internal/canonical"
	"docparse/internal/domain"
)

// taxIDRule validates supplier and customer tax identifiers against the
// per-country format table. A malformed identifier is an error only when the
// jurisdiction's pattern is known; otherwise a warning.
type taxIDRule struct{}

// NewTaxIDRule creates the tax-identifier format rule.
func NewTaxIDRule() Rule {
	return &taxIDRule{}
}

func (r *taxIDRule) RuleKey() string           { return "tax.id_format" }
func (r *taxIDRule) Severity() domain.Severity { return domain.SeverityError }

func (r *taxIDRule) Check(doc *canonical.Document) []Discrepancy {
	var out []Discrepancy
	out = append(out, r.checkParty("supplier.tax_id", &doc.Supplier)...)
	out = append(out, r.checkParty("customer.tax_id", &doc.Customer)...)
	return out
}

func (r *taxIDRule) checkParty(fieldPath string, party *canonical.Party) []Discrepancy {
	raw := party.TaxID
	if raw == "" {
		return nil
	}

	id := normalizeTaxID(raw)
	pattern, known := patternForTaxID(id, party.Address.Country)
	if !known {
		return []Discrepancy{{
			FieldPath: fieldPath,
			RuleKey:   r.RuleKey(),
			Expected:  "known jurisdiction format",
			Actual:    raw,
			Message:   fmt.Sprintf("%s: no format rule for identifier %q", fieldPath, raw),
			Severity:  domain.SeverityWarning,
		}}
	}

	if !pattern.MatchString(id) {
		return []Discrepancy{{
			FieldPath: fieldPath,
			RuleKey:   r.RuleKey(),
			Expected:  pattern.String(),
			Actual:    raw,
			Message:   fmt.Sprintf("%s: %q does not match the jurisdiction format", fieldPath, raw),
			Severity:  domain.SeverityError,
		}}
	}
	return nil
}

func normalizeTaxID(id string) string {
	id = strings.ToUpper(id)
	return strings.NewReplacer(" ", "", "-", "", ".", "").Replace(id)
}

// patternForTaxID resolves the format pattern from the identifier's own prefix,
// falling back to the party's country code.
func patternForTaxID(id, country string) (pattern *regexp.Regexp, known bool) {
	if len(id) >= 2 {
		if p, ok := VATIDPatterns[id[:2]]; ok {
			return p, true
		}
	}
	country = vatCountryPrefix(strings.ToUpper(strings.TrimSpace(country)))
	if p, ok := VATIDPatterns[country]; ok {
		return p, true
	}
	return nil, false
}
