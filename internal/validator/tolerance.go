package validator

import "math"

// Tolerance controls how far an extracted amount may drift from its computed
// value before a rule flags it. Two amounts are close when their difference is
// within the absolute tolerance or the relative tolerance, whichever allows
// more. Line item checks use a wider absolute bound to absorb per-line rounding.
type Tolerance struct {
	Absolute     float64
	Relative     float64
	LineAbsolute float64
}

// DefaultTolerance returns the deployment defaults: 2 cents absolute, 1%
// relative, 5 cents per line item.
func DefaultTolerance() Tolerance {
	return Tolerance{
		Absolute:     0.02,
		Relative:     0.01,
		LineAbsolute: 0.05,
	}
}

// Close reports whether a and b match within the document-level tolerance.
func (t Tolerance) Close(a, b float64) bool {
	return within(a, b, t.Absolute, t.Relative)
}

// LineClose reports whether a and b match within the line-item tolerance.
func (t Tolerance) LineClose(a, b float64) bool {
	return within(a, b, t.LineAbsolute, t.Relative)
}

func within(a, b, abs, rel float64) bool {
	diff := math.Abs(a - b)
	if diff <= abs {
		return true
	}
	max := math.Max(math.Abs(a), math.Abs(b))
	if max > 0 {
		return diff/max <= rel
	}
	return true
}
