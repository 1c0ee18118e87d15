package correction

import (
	"math"

	"docparse/internal/canonical"
	"docparse/internal/port"
	"docparse/internal/validator"
)

const agreementBoost = 0.2

// merge folds one correction attempt into the draft. Only fields touched by a
// discrepancy are eligible; everything else is kept verbatim so a consistent
// field can never be disturbed. A replacement is accepted when the attempt is
// at least as confident as the draft, or when applying it demonstrably
// resolves a violated check without introducing a new one.
func (e *Engine) merge(draft *canonical.Document, conf canonical.ConfidenceMap, attempt *port.ExtractOutput, report *validator.Report, round int) []Decision {
	var decisions []Decision

	attemptFlat := attempt.Document.Flatten()
	draftFlat := draft.Flatten()
	baseErrors := fieldErrorCounts(report)

	if d, ok := e.mergeLineItems(draft, conf, attempt, report, round); ok {
		decisions = append(decisions, d)
		draftFlat = draft.Flatten()
		baseErrors = fieldErrorCounts(e.validator.Validate(draft))
	}

	for _, path := range report.TouchedFields() {
		newVal, ok := attemptFlat[path]
		if !ok {
			continue
		}
		oldVal := draftFlat[path]
		oldScore := conf.Score(path)
		newScore := attempt.Confidence.Score(path)

		dec := Decision{
			Round:     round,
			FieldPath: path,
			OldValue:  oldVal,
			NewValue:  newVal,
			OldScore:  oldScore,
			NewScore:  newScore,
		}

		if sameValue(oldVal, newVal) {
			// Independent agreement raises confidence without changing the value.
			boosted := oldScore + (1-oldScore)*agreementBoost
			conf.Set(path, boosted, round)
			dec.Accepted = false
			dec.Reason = "attempt agrees with draft"
			decisions = append(decisions, dec)
			continue
		}

		switch {
		case newScore >= oldScore:
			if introducesError(e, draft, path, newVal, baseErrors) {
				dec.Reason = "higher confidence but introduces a new discrepancy"
				decisions = append(decisions, dec)
				continue
			}
			dec.Reason = "attempt at least as confident as draft"
		case resolvesError(e, draft, path, newVal, baseErrors):
			dec.Reason = "resolves a violated check despite lower confidence"
		default:
			dec.Reason = "lower confidence and does not resolve a discrepancy"
			decisions = append(decisions, dec)
			continue
		}

		if err := draft.Apply(path, newVal); err != nil {
			dec.Accepted = false
			dec.Reason = "value not applicable: " + err.Error()
			decisions = append(decisions, dec)
			continue
		}
		conf.Set(path, newScore, round)
		dec.Accepted = true
		decisions = append(decisions, dec)
	}

	return decisions
}

// mergeLineItems handles the one structural replacement the field-path model
// cannot express: an attempt with a different number of line items. The whole
// array is swapped only when revalidation shows strictly fewer error fields.
func (e *Engine) mergeLineItems(draft *canonical.Document, conf canonical.ConfidenceMap, attempt *port.ExtractOutput, report *validator.Report, round int) (Decision, bool) {
	if len(attempt.Document.LineItems) == len(draft.LineItems) {
		return Decision{}, false
	}
	touchesLines := false
	for _, d := range report.Discrepancies {
		if canonical.IsLineItemPath(d.FieldPath) || d.FieldPath == "totals.subtotal" {
			touchesLines = true
			break
		}
	}
	if !touchesLines {
		return Decision{}, false
	}

	candidate := draft.Clone()
	candidate.LineItems = attempt.Document.CloneLineItems()
	candRep := e.validator.Validate(candidate)

	dec := Decision{
		Round:     round,
		FieldPath: "line_items",
		OldValue:  len(draft.LineItems),
		NewValue:  len(attempt.Document.LineItems),
	}
	base := fieldErrorCounts(report)
	cand := fieldErrorCounts(candRep)
	if len(cand) >= len(base) || hasNewErrorField(cand, base) {
		dec.Reason = "replacement item set does not reduce discrepancies"
		return dec, true
	}

	draft.LineItems = candidate.LineItems
	for i := range draft.LineItems {
		for _, p := range canonical.LineItemPaths(i) {
			conf.Set(p, attempt.Confidence.Score(p), round)
		}
	}
	dec.Accepted = true
	dec.Reason = "replacement item set resolves discrepancies"
	return dec, true
}

// resolvesError applies the candidate value on a clone and checks whether the
// field's violated rules now pass with no new error field anywhere.
func resolvesError(e *Engine, draft *canonical.Document, path string, val any, baseErrors map[string]int) bool {
	if baseErrors[path] == 0 {
		return false
	}
	candRep, ok := revalidate(e, draft, path, val)
	if !ok {
		return false
	}
	cand := fieldErrorCounts(candRep)
	return cand[path] < baseErrors[path] && !hasNewErrorField(cand, baseErrors)
}

// introducesError guards confidence-based acceptance: a more confident value
// that breaks a previously consistent field is still rejected.
func introducesError(e *Engine, draft *canonical.Document, path string, val any, baseErrors map[string]int) bool {
	candRep, ok := revalidate(e, draft, path, val)
	if !ok {
		return true
	}
	return hasNewErrorField(fieldErrorCounts(candRep), baseErrors)
}

func revalidate(e *Engine, draft *canonical.Document, path string, val any) (*validator.Report, bool) {
	candidate := draft.Clone()
	if err := candidate.Apply(path, val); err != nil {
		return nil, false
	}
	return e.validator.Validate(candidate), true
}

func fieldErrorCounts(report *validator.Report) map[string]int {
	counts := make(map[string]int)
	for _, d := range report.Errors() {
		counts[d.FieldPath]++
	}
	return counts
}

func hasNewErrorField(cand, base map[string]int) bool {
	for path := range cand {
		if base[path] == 0 {
			return true
		}
	}
	return false
}

func sameValue(a, b any) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return math.Abs(af-bf) < 1e-9
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
