package validator

import (
	"docparse/internal/canonical"
	"docparse/internal/domain"
)

// Engine runs the registered rules against a draft. It is pure: the same
// unchanged draft always yields the same report, and the draft is never
// mutated, so it can be called any number of times between correction rounds.
type Engine struct {
	registry *Registry
}

// NewEngine creates an Engine over a rule registry.
func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// NewDefaultEngine creates an Engine with the built-in rule set in canonical
// order: arithmetic, then tax-rate plausibility, then tax-identifier format.
func NewDefaultEngine(tol Tolerance) *Engine {
	registry := NewRegistry()
	for _, r := range ArithmeticRules(tol) {
		registry.Register(r)
	}
	registry.Register(NewTaxRateRule(tol))
	registry.Register(NewTaxIDRule())
	return NewEngine(registry)
}

// Validate checks the draft against every rule and returns the ordered
// discrepancy list. Consistent is true iff no error-severity discrepancy.
func (e *Engine) Validate(doc *canonical.Document) *Report {
	var all []Discrepancy
	for _, rule := range e.registry.All() {
		all = append(all, rule.Check(doc)...)
	}

	consistent := true
	for _, d := range all {
		if d.Severity == domain.SeverityError {
			consistent = false
			break
		}
	}
	return &Report{Discrepancies: all, Consistent: consistent}
}
