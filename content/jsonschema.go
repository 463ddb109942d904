package content

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const jsonSchemaDialect = "https://json-schema.org/draft/2020-12/schema"

// JSONSchema describes the schema as a JSON Schema document, suitable for
// editor tooling that checks frontmatter while writing.
func (s *Schema) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s.fields))
	required := []string{}
	for _, f := range s.fields {
		properties[f.Name] = fieldJSONSchema(f)
		if !f.Optional {
			required = append(required, f.Name)
		}
	}
	return map[string]any{
		"$schema":              jsonSchemaDialect,
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": true,
	}
}

func fieldJSONSchema(f Field) map[string]any {
	var out map[string]any
	switch f.Kind {
	case KindString:
		out = map[string]any{"type": "string"}
	case KindDate:
		out = map[string]any{
			"anyOf": []any{
				map[string]any{"type": "string", "format": "date-time"},
				map[string]any{"type": "string", "format": "date"},
				map[string]any{"type": "integer"},
			},
		}
	case KindStringSlice:
		out = map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		}
	default:
		out = map[string]any{}
	}
	if f.Optional && f.Default != nil {
		out["default"] = f.Default
	}
	return out
}

// Compile compiles JSONSchema so documents can be checked against it.
func (s *Schema) Compile() (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(s.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("content: encode json schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(encoded)); err != nil {
		return nil, fmt.Errorf("content: add json schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("content: compile json schema: %w", err)
	}
	return compiled, nil
}

// ToJSONValue round-trips v through encoding/json so it only holds the value
// types the JSON Schema validator understands.
func ToJSONValue(v any) (any, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, err
	}
	return out, nil
}
