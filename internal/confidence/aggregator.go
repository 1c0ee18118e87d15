// Package confidence turns a validated draft and its per-field confidence map
// into the overall trust judgment: a tri-state level, a review flag, and the
// terminal parse status.
package confidence

import (
	"docparse/internal/canonical"
	"docparse/internal/domain"
	"docparse/internal/validator"
)

// Options are the aggregation thresholds. Read-only at request time.
type Options struct {
	// LowFieldThreshold caps the level at medium when any individual field
	// confidence falls below it, even absent discrepancies. Extraction can be
	// "confidently wrong" only if arithmetic and format checks pass, so the
	// severity gate alone is not enough.
	LowFieldThreshold float64
	// MediumFieldThreshold maps a discrepancy-touched field's confidence to
	// the low level when below it.
	MediumFieldThreshold float64
}

// DefaultOptions returns the deployment defaults.
func DefaultOptions() Options {
	return Options{
		LowFieldThreshold:    0.5,
		MediumFieldThreshold: 0.35,
	}
}

// Judgment is the aggregated confidence verdict for one parse.
type Judgment struct {
	Level          domain.ConfidenceLevel
	ReviewRequired bool
	Status         domain.ParseStatus
}

// Aggregate combines the validation report and the per-field confidences into
// the overall judgment. Two gates apply: a floor from discrepancy severity and
// a floor from per-field confidence; the result is the minimum of both.
// exhausted marks a correction engine that ran out of retry budget with
// error-severity discrepancies remaining.
func Aggregate(confidences canonical.ConfidenceMap, report *validator.Report, exhausted bool, opts Options) Judgment {
	level := severityFloor(report).Min(fieldFloor(confidences, report, opts))

	review := level != domain.ConfidenceHigh

	status := domain.ParseStatusValid
	switch {
	case exhausted && !report.Consistent:
		// The budget ran out with errors standing. The document is invalid
		// only when the unresolved fields are also untrustworthy; otherwise
		// the data is plausibly usable and a human should decide.
		if confidences.Lowest(report.ErrorFields()) < opts.MediumFieldThreshold {
			status = domain.ParseStatusInvalid
		} else {
			status = domain.ParseStatusUncertain
		}
	case review:
		status = domain.ParseStatusUncertain
	}

	return Judgment{Level: level, ReviewRequired: review, Status: status}
}

// severityFloor derives the level cap from the worst unresolved discrepancy:
// any error caps at low, any warning at medium.
func severityFloor(report *validator.Report) domain.ConfidenceLevel {
	floor := domain.ConfidenceHigh
	for _, d := range report.Discrepancies {
		switch d.Severity {
		case domain.SeverityError:
			return domain.ConfidenceLow
		case domain.SeverityWarning:
			floor = domain.ConfidenceMedium
		}
	}
	return floor
}

// fieldFloor derives the level cap from per-field confidence. Fields touched
// by a discrepancy gate harder than untouched ones.
func fieldFloor(confidences canonical.ConfidenceMap, report *validator.Report, opts Options) domain.ConfidenceLevel {
	touched := report.TouchedFields()
	if len(touched) > 0 {
		lowest := confidences.Lowest(touched)
		switch {
		case lowest < opts.MediumFieldThreshold:
			return domain.ConfidenceLow
		case lowest < opts.LowFieldThreshold:
			return domain.ConfidenceMedium
		}
	}

	for path := range confidences {
		if confidences.Score(path) < opts.LowFieldThreshold {
			return domain.ConfidenceMedium
		}
	}
	return domain.ConfidenceHigh
}
