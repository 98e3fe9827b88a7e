package eval

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// categoryResponseSchema returns the JSON-Schema (draft 2020-12 subset) the
// model reply must satisfy before it is accepted as structured output.
// Score bounds here are what guarantee every accepted result lands in
// [0, 100]; out-of-range replies fall through to the degraded path.
func categoryResponseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score":   map[string]any{"type": "number", "minimum": 0, "maximum": 100},
			"summary": map[string]any{"type": "string"},
			"strengths": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"areas_for_improvement": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{"score", "summary"},
	}
}

// validateCategoryJSON validates data against the category response schema.
func validateCategoryJSON(data []byte) error {
	b, err := json.Marshal(categoryResponseSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("category-response.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("category-response.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
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
