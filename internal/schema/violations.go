package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	validator "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
)

// violationsOf flattens the validator's error tree into one violation per
// failing keyword. instance is the validated value; type mismatches are
// described from it.
func violationsOf(err *validator.ValidationError, instance any) []Violation {
	if len(err.Causes) > 0 {
		var out []Violation
		for _, cause := range err.Causes {
			out = append(out, violationsOf(cause, instance)...)
		}
		return out
	}

	path := renderPath(err.InstanceLocation)
	switch k := err.ErrorKind.(type) {
	case *kind.Required:
		out := make([]Violation, len(k.Missing))
		for i, name := range k.Missing {
			out[i] = Violation{Path: join(path, name), Message: "is required"}
		}
		return out
	case *kind.AdditionalProperties:
		out := make([]Violation, len(k.Properties))
		for i, name := range k.Properties {
			out[i] = Violation{Path: join(path, name), Message: "is not an allowed property"}
		}
		return out
	case *kind.Type:
		got := kindOf(lookup(instance, err.InstanceLocation))
		return one(path, fmt.Sprintf("expected %s, got %s", strings.Join(k.Want, " or "), got))
	case *kind.Enum:
		return one(path, "must be one of "+renderEnum(k.Want))
	case *kind.MinItems:
		return one(path, fmt.Sprintf("must contain at least %d items", k.Want))
	case *kind.MaxItems:
		return one(path, fmt.Sprintf("must contain at most %d items", k.Want))
	case *kind.MinLength:
		return one(path, fmt.Sprintf("must be at least %d characters long", k.Want))
	case *kind.MaxLength:
		return one(path, fmt.Sprintf("must be at most %d characters long", k.Want))
	case *kind.Minimum:
		return one(path, "must be >= "+k.Want.RatString())
	case *kind.Maximum:
		return one(path, "must be <= "+k.Want.RatString())
	case *kind.FalseSchema:
		return one(path, "is not allowed")
	}
	return one(path, "fails "+strings.Join(err.ErrorKind.KeywordPath(), "/"))
}

func one(path, message string) []Violation {
	return []Violation{{Path: path, Message: message}}
}

// renderPath turns instance location tokens into "flashcards[2].front".
func renderPath(tokens []string) string {
	var b strings.Builder
	for _, token := range tokens {
		if _, err := strconv.Atoi(token); err == nil {
			b.WriteString("[" + token + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(token)
	}
	return b.String()
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func lookup(v any, tokens []string) any {
	for _, token := range tokens {
		switch node := v.(type) {
		case map[string]any:
			v = node[token]
		case []any:
			i, err := strconv.Atoi(token)
			if err != nil || i < 0 || i >= len(node) {
				return nil
			}
			v = node[i]
		default:
			return nil
		}
	}
	return v
}

func kindOf(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number:
		if _, err := val.Int64(); err == nil {
			return "integer"
		}
		return "number"
	case float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func renderEnum(enum []any) string {
	parts := make([]string, len(enum))
	for i, e := range enum {
		data, err := json.Marshal(e)
		if err != nil {
			parts[i] = fmt.Sprint(e)
			continue
		}
		parts[i] = string(data)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
