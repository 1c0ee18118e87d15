package extractor

import (
	"encoding/json"
	"fmt"

	"docparse/internal/canonical"
)

// DecodeModelOutput turns the model's "data" and "confidence_scores" payloads
// into a draft document and a per-field confidence map. The data payload is
// schema-checked first; a payload that fails the schema is a failed attempt.
func DecodeModelOutput(data, scores json.RawMessage) (*canonical.Document, canonical.ConfidenceMap, error) {
	if err := ValidateDocumentJSON(data); err != nil {
		return nil, nil, fmt.Errorf("model output rejected: %w", err)
	}

	var doc canonical.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("decoding document: %w", err)
	}

	conf := make(canonical.ConfidenceMap)
	if len(scores) > 0 {
		var nested map[string]any
		if err := json.Unmarshal(scores, &nested); err != nil {
			// Scores are advisory. A malformed score block downgrades every
			// field to the conservative default instead of failing the attempt.
			return &doc, conf, nil
		}
		flattenScores("", nested, conf)
	}
	return &doc, conf, nil
}

// flattenScores walks the nested confidence_scores object, which mirrors the
// data structure, and records leaf scores under canonical field paths.
func flattenScores(prefix string, node map[string]any, conf canonical.ConfidenceMap) {
	for key, val := range node {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		switch v := val.(type) {
		case float64:
			conf.Set(path, v, 0)
		case map[string]any:
			flattenScores(path, v, conf)
		case []any:
			for i, elem := range v {
				if m, ok := elem.(map[string]any); ok {
					flattenScores(fmt.Sprintf("%s[%d]", path, i), m, conf)
				}
			}
		}
	}
}
