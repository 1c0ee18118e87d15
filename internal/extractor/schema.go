package extractor

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// documentSchema constrains the "data" object the model returns. Structural
// violations are caught here, before decoding; arithmetic and tax consistency
// are the validator's job.
const documentSchema = `{
  "type": "object",
  "required": ["document", "supplier", "customer", "line_items", "totals"],
  "properties": {
    "document": {
      "type": "object",
      "required": ["type", "number", "currency"],
      "properties": {
        "type": {"type": "string", "enum": ["invoice", "credit_note", "receipt", "unknown"]},
        "number": {"type": "string"},
        "issue_date": {"type": "string"},
        "due_date": {"type": "string"},
        "currency": {"type": "string", "pattern": "^([A-Z]{3})?$"}
      }
    },
    "supplier": {"$ref": "#/$defs/party"},
    "customer": {"$ref": "#/$defs/party"},
    "line_items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["description", "quantity", "unit_price", "line_total"],
        "properties": {
          "description": {"type": "string"},
          "quantity": {"type": "number"},
          "unit": {"type": "string"},
          "unit_price": {"type": "number"},
          "discount": {"type": "number"},
          "tax_rate": {"type": "number"},
          "tax_amount": {"type": "number"},
          "line_total": {"type": "number"}
        }
      }
    },
    "totals": {
      "type": "object",
      "required": ["subtotal", "total_tax", "total_amount"],
      "properties": {
        "subtotal": {"type": "number"},
        "total_tax": {"type": "number"},
        "shipping_amount": {"type": "number"},
        "total_amount": {"type": "number"},
        "amount_due": {"type": "number"},
        "rounding_amount": {"type": "number"}
      }
    },
    "payment": {
      "type": "object",
      "properties": {
        "method": {"type": "string"},
        "terms": {"type": "string"},
        "reference": {"type": "string"}
      }
    },
    "notes": {"type": "string"}
  },
  "$defs": {
    "party": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": {"type": "string"},
        "tax_id": {"type": "string"},
        "address": {
          "type": "object",
          "properties": {
            "street": {"type": "string"},
            "city": {"type": "string"},
            "postal_code": {"type": "string"},
            "country": {"type": "string", "pattern": "^([A-Z]{2})?$"}
          }
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("document.json", strings.NewReader(documentSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("document.json")
	})
	return compiledSchema, schemaErr
}

// ValidateDocumentJSON checks the model's "data" object against the canonical
// document schema.
func ValidateDocumentJSON(data []byte) error {
	schema, err := compiled()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
