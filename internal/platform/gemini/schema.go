package gemini

import (
	"encoding/json"
	"fmt"
	"sort"

	"google.golang.org/genai"
)

type jsonSchema struct {
	Type        json.RawMessage        `json:"type"`
	Description string                 `json:"description"`
	Properties  map[string]*jsonSchema `json:"properties"`
	Required    []string               `json:"required"`
	Items       *jsonSchema            `json:"items"`
	Enum        []string               `json:"enum"`
	MinItems    *int64                 `json:"minItems"`
	MaxItems    *int64                 `json:"maxItems"`
	MinLength   *int64                 `json:"minLength"`
	MaxLength   *int64                 `json:"maxLength"`
	Minimum     *float64               `json:"minimum"`
	Maximum     *float64               `json:"maximum"`
}

// ConvertSchema translates a JSON Schema document into Gemini's OpenAPI-style
// schema. additionalProperties has no Gemini equivalent and is dropped; the
// extractor still enforces it on the response.
func ConvertSchema(doc json.RawMessage) (*genai.Schema, error) {
	var root jsonSchema
	if err := json.Unmarshal(doc, &root); err != nil {
		return nil, fmt.Errorf("decode json schema: %w", err)
	}
	return convert(&root, "")
}

func convert(s *jsonSchema, path string) (*genai.Schema, error) {
	typ, nullable, err := geminiType(s.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pathOrRoot(path), err)
	}

	out := &genai.Schema{
		Type:        typ,
		Description: s.Description,
		Enum:        s.Enum,
		MinItems:    s.MinItems,
		MaxItems:    s.MaxItems,
		MinLength:   s.MinLength,
		MaxLength:   s.MaxLength,
		Minimum:     s.Minimum,
		Maximum:     s.Maximum,
		Required:    s.Required,
	}
	if nullable {
		out.Nullable = genai.Ptr(true)
	}
	if len(s.Enum) > 0 && typ == genai.TypeString {
		out.Format = "enum"
	}

	if s.Items != nil {
		items, err := convert(s.Items, path+"[]")
		if err != nil {
			return nil, err
		}
		out.Items = items
	}

	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			child, err := convert(prop, joinPath(path, name))
			if err != nil {
				return nil, err
			}
			out.Properties[name] = child
		}
		out.PropertyOrdering = propertyOrder(s)
	}

	return out, nil
}

// propertyOrder lists required properties first, in declaration order, then
// the remaining ones alphabetically.
func propertyOrder(s *jsonSchema) []string {
	seen := make(map[string]bool, len(s.Properties))
	order := make([]string, 0, len(s.Properties))
	for _, name := range s.Required {
		if _, ok := s.Properties[name]; ok && !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range s.Properties {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func geminiType(raw json.RawMessage) (genai.Type, bool, error) {
	if len(raw) == 0 {
		return genai.TypeUnspecified, false, nil
	}
	var names []string
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		names = []string{one}
	} else if err := json.Unmarshal(raw, &names); err != nil {
		return "", false, fmt.Errorf("invalid type: %w", err)
	}

	nullable := false
	var chosen []string
	for _, n := range names {
		if n == "null" {
			nullable = true
			continue
		}
		chosen = append(chosen, n)
	}
	if len(chosen) != 1 {
		return "", false, fmt.Errorf("union types %v are not supported", names)
	}

	switch chosen[0] {
	case "object":
		return genai.TypeObject, nullable, nil
	case "array":
		return genai.TypeArray, nullable, nil
	case "string":
		return genai.TypeString, nullable, nil
	case "integer":
		return genai.TypeInteger, nullable, nil
	case "number":
		return genai.TypeNumber, nullable, nil
	case "boolean":
		return genai.TypeBoolean, nullable, nil
	default:
		return "", false, fmt.Errorf("unsupported type %q", chosen[0])
	}
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func pathOrRoot(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}
