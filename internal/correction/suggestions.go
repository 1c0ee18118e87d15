package correction

import "fmt"

// Suggestion is one reviewer-facing hint: either a correction the engine made
// or a discrepancy it could not resolve. Suggestions are serialized onto the
// parse record so a human sees the full history, not just the end state.
type Suggestion struct {
	FieldPath  string  `json:"field_path"`
	Round      int     `json:"round,omitempty"`
	OldValue   any     `json:"old_value,omitempty"`
	NewValue   any     `json:"new_value,omitempty"`
	Applied    bool    `json:"applied"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// buildSuggestions compiles the decision history plus any discrepancies that
// survived the final validation pass.
func buildSuggestions(o *Outcome) []Suggestion {
	var out []Suggestion

	for _, dec := range o.Decisions {
		if !dec.Accepted {
			continue
		}
		out = append(out, Suggestion{
			FieldPath:  dec.FieldPath,
			Round:      dec.Round,
			OldValue:   dec.OldValue,
			NewValue:   dec.NewValue,
			Applied:    true,
			Reason:     dec.Reason,
			Confidence: dec.NewScore,
		})
	}

	for _, d := range o.Report.Discrepancies {
		out = append(out, Suggestion{
			FieldPath:  d.FieldPath,
			OldValue:   d.Actual,
			NewValue:   d.Expected,
			Applied:    false,
			Reason:     fmt.Sprintf("unresolved %s: %s", d.Severity, d.Message),
			Confidence: o.Confidence.Score(d.FieldPath),
		})
	}

	return out
}
