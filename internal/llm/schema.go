package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// RecordSchema is the compiled response contract: exactly the eleven record
// keys, nullable strings except category, canonical decimal amount, 3-letter
// currency. The category set is fixed for the life of the process, so
// callers compile once and validate per response.
type RecordSchema struct {
	schema *jsonschema.Schema
}

func NewRecordSchema(allowedCategories []string) (*RecordSchema, error) {
	doc, err := json.Marshal(recordSchemaDoc(allowedCategories))
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record.json", bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := compiler.Compile("record.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &RecordSchema{schema: s}, nil
}

// Validate checks raw model output against the contract.
func (rs *RecordSchema) Validate(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := rs.schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// recordSchemaDoc builds the JSON-Schema (draft 2020-12 subset) as a generic
// map. We pass its intent to the model via the prompt and enforce it locally
// before dispatch.
func recordSchemaDoc(allowedCategories []string) map[string]any {
	props := map[string]any{
		"payee":         nullableString(),
		"tin":           nullableString(),
		"address":       nullableString(),
		"sib":           nullableString(),
		"amount":        decimalProp(),
		"amountinwords": nullableString(),
		"currency": map[string]any{
			"type":    []string{"string", "null"},
			"pattern": `^[A-Z]{3}$`,
		},
		"category":   map[string]any{"type": "string", "minLength": 1},
		"purpose":    nullableString(),
		"accountnum": nullableString(),
		"mobilenum":  nullableString(),
	}

	// Constrain category to the closed enum when one is provided.
	if len(allowedCategories) > 0 {
		props["category"] = map[string]any{
			"type": "string",
			"enum": allowedCategories,
		}
	}

	// Every key must be present; absence is not the same as null here.
	required := []string{
		"payee", "tin", "address", "sib", "amount", "amountinwords",
		"currency", "category", "purpose", "accountnum", "mobilenum",
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func nullableString() map[string]any {
	return map[string]any{"type": []string{"string", "null"}}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    []string{"string", "null"},
		"pattern": `^-?\d+(\.\d{1,2})?$`,
	}
}
