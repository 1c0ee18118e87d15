package canonical

// DefaultFieldConfidence is the conservative score assigned when the
// extraction capability cannot estimate one for a populated field.
const DefaultFieldConfidence = 0.3

// FieldConfidence is the extraction confidence for one logical field.
type FieldConfidence struct {
	Score   float64 `json:"score"`
	Attempt int     `json:"attempt"` // which extraction attempt produced the value (0 = initial)
}

// ConfidenceMap maps field paths to their extraction confidence. It travels
// alongside a draft during correction; it is not part of the persisted document.
type ConfidenceMap map[string]FieldConfidence

// Score returns the confidence for a field path, falling back to the
// conservative default when the extractor reported nothing for it.
func (m ConfidenceMap) Score(path string) float64 {
	if fc, ok := m[path]; ok {
		return fc.Score
	}
	return DefaultFieldConfidence
}

// Set records a score for a field path, clamped to [0,1].
func (m ConfidenceMap) Set(path string, score float64, attempt int) {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	m[path] = FieldConfidence{Score: score, Attempt: attempt}
}

// Clone returns an independent copy of the map.
func (m ConfidenceMap) Clone() ConfidenceMap {
	out := make(ConfidenceMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Lowest returns the lowest score among the given field paths. Paths without
// a recorded score count at the conservative default. Returns 1 for an empty set.
func (m ConfidenceMap) Lowest(paths []string) float64 {
	lowest := 1.0
	for _, p := range paths {
		if s := m.Score(p); s < lowest {
			lowest = s
		}
	}
	return lowest
}
