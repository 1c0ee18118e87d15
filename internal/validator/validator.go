package validator

import (
	"docparse/internal/canonical"
	"docparse/internal/domain"
)

// Discrepancy is one detected inconsistency between extracted values and a
// rule. It is data, not an error: it flows through the correction engine and
// the confidence aggregator.
type Discrepancy struct {
	FieldPath string          `json:"field_path"`
	RuleKey   string          `json:"rule_key"`
	Expected  string          `json:"expected"`
	Actual    string          `json:"actual"`
	Message   string          `json:"message"`
	Severity  domain.Severity `json:"severity"`
}

// Rule is a single validation check over a canonical document draft.
// Implementations must be pure: no mutation of the draft, no side effects.
type Rule interface {
	RuleKey() string
	Severity() domain.Severity
	Check(doc *canonical.Document) []Discrepancy
}

// Report is the outcome of validating one draft.
type Report struct {
	Discrepancies []Discrepancy
	Consistent    bool // true iff no error-severity discrepancy
}

// Errors returns only the error-severity discrepancies.
func (r *Report) Errors() []Discrepancy {
	var out []Discrepancy
	for _, d := range r.Discrepancies {
		if d.Severity == domain.SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// ErrorFields returns the distinct field paths touched by error-severity
// discrepancies, in first-seen order.
func (r *Report) ErrorFields() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range r.Discrepancies {
		if d.Severity != domain.SeverityError || seen[d.FieldPath] {
			continue
		}
		seen[d.FieldPath] = true
		out = append(out, d.FieldPath)
	}
	return out
}

// TouchedFields returns the distinct field paths touched by any discrepancy,
// in first-seen order.
func (r *Report) TouchedFields() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range r.Discrepancies {
		if seen[d.FieldPath] {
			continue
		}
		seen[d.FieldPath] = true
		out = append(out, d.FieldPath)
	}
	return out
}
